// Package llm adapts hosted language models to the narrow completion
// contract the classifier stages depend on.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// CompletionRequest is a single-turn prompt.
type CompletionRequest struct {
	System    string
	User      string
	MaxTokens int
	// JSON asks the provider for a JSON object when it supports a JSON mode.
	JSON bool
}

// Completer returns the model's text reply to a prompt.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// ErrCircuitOpen is returned while a provider's breaker is open.
var ErrCircuitOpen = errors.New("llm circuit open")

// ErrorKind classifies an inference failure.
type ErrorKind string

const (
	KindUpstream  ErrorKind = "upstream"
	KindTimeout   ErrorKind = "timeout"
	KindMalformed ErrorKind = "malformed"
	KindSchema    ErrorKind = "schema"
)

// InferenceError is returned by Structured for any failure to obtain a
// valid structured result.
type InferenceError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

func upstreamKind(ctx context.Context, err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUpstream
}
