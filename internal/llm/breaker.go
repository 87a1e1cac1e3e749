package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Breaker stops calling a failing provider for a cool-down period so a
// batch does not queue hundreds of doomed requests behind it.
type Breaker struct {
	next Completer
	cb   *gobreaker.CircuitBreaker
}

func NewBreaker(name string, next Completer, logger *slog.Logger) *Breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		// Cancelled candidates say nothing about the provider's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit state changed", "provider", name, "from", from.String(), "to", to.String())
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %s", ErrCircuitOpen, b.cb.Name())
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state for status endpoints.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
