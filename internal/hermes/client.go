// Package hermes publishes scout events to NATS and receives transcript
// submissions from it.
package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// QueueGroup is shared by every scout replica so each submission is handled
// once.
const QueueGroup = "scout"

// Handler receives the subject and raw payload of a message.
type Handler func(subject string, data []byte)

// Client is a NATS connection that speaks JSON payloads.
type Client struct {
	conn   *nats.Conn
	closed chan struct{}
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	c := &Client{closed: make(chan struct{}), logger: logger}

	opts := []nats.Option{
		nats.Name("scout"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("nats async error", "subject", subject, "error", err)
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			close(c.closed)
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	c.conn = nc

	if deadline, ok := ctx.Deadline(); ok {
		if err := nc.FlushTimeout(time.Until(deadline)); err != nil {
			logger.Warn("nats not reachable yet, will keep retrying", "url", url, "error", err)
		}
	}
	return c, nil
}

// Publish sends data as a JSON message.
func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	msg := nats.NewMsg(subject)
	msg.Header.Set("Content-Type", "application/json")
	msg.Data = payload
	return c.conn.PublishMsg(msg)
}

// Subscribe delivers every message on subject to handler.
func (c *Client) Subscribe(subject string, handler Handler) error {
	_, err := c.conn.Subscribe(subject, c.wrap(handler))
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.logger.Info("subscribed", "subject", subject)
	return nil
}

// QueueSubscribe shares messages on subject across the members of queue.
func (c *Client) QueueSubscribe(subject, queue string, handler Handler) error {
	_, err := c.conn.QueueSubscribe(subject, queue, c.wrap(handler))
	if err != nil {
		return fmt.Errorf("subscribe %s (queue %s): %w", subject, queue, err)
	}
	c.logger.Info("subscribed", "subject", subject, "queue", queue)
	return nil
}

// wrap keeps a panicking handler from killing the subscription goroutine.
func (c *Client) wrap(handler Handler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("nats handler panicked", "subject", msg.Subject, "panic", r)
			}
		}()
		handler(msg.Subject, msg.Data)
		c.logger.Debug("nats message handled", "subject", msg.Subject, "duration", time.Since(start).String())
	}
}

// Connected reports whether the connection is currently up.
func (c *Client) Connected() bool {
	return c.conn.IsConnected()
}

// Drain stops new deliveries, waits for running handlers and closes the
// connection. It gives up when ctx ends.
func (c *Client) Drain(ctx context.Context) error {
	if err := c.conn.Drain(); err != nil {
		return fmt.Errorf("nats drain: %w", err)
	}
	select {
	case <-c.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close is safe to call after Drain.
func (c *Client) Close() {
	c.conn.Close()
}
