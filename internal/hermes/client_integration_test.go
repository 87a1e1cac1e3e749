//go:build integration

package hermes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/scout/internal/output"
)

func connect(t *testing.T) *Client {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := NewClient(ctx, url, os.Getenv("NATS_TOKEN"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(c.Close)
	require.Eventually(t, c.Connected, 5*time.Second, 50*time.Millisecond)
	return c
}

func TestIntegration_BatchCompletedRoundTrip(t *testing.T) {
	c := connect(t)

	received := make(chan output.Summary, 1)
	require.NoError(t, c.Subscribe(SubjectBatchCompleted, func(_ string, data []byte) {
		var sum output.Summary
		if json.Unmarshal(data, &sum) == nil {
			received <- sum
		}
	}))
	require.NoError(t, c.conn.Flush())

	require.NoError(t, NewPublisher(c).BatchCompleted(context.Background(), output.Summary{RunID: "integration", Total: 3, Leads: 1}))

	select {
	case sum := <-received:
		assert.Equal(t, "integration", sum.RunID)
		assert.Equal(t, 1, sum.Leads)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for batch summary")
	}
}

func TestIntegration_QueueGroupDeliversOnce(t *testing.T) {
	a, b := connect(t), connect(t)
	subject := "scout.test.queue." + time.Now().Format("150405.000000")

	var count atomic.Int32
	handler := func(string, []byte) { count.Add(1) }
	require.NoError(t, a.QueueSubscribe(subject, QueueGroup, handler))
	require.NoError(t, b.QueueSubscribe(subject, QueueGroup, handler))
	require.NoError(t, a.conn.Flush())
	require.NoError(t, b.conn.Flush())

	for i := 0; i < 10; i++ {
		require.NoError(t, a.Publish(subject, map[string]int{"i": i}))
	}
	require.Eventually(t, func() bool { return count.Load() == 10 }, 5*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(10), count.Load())
}

func TestIntegration_HandlerPanicKeepsSubscription(t *testing.T) {
	c := connect(t)
	subject := "scout.test.panic." + time.Now().Format("150405.000000")

	got := make(chan string, 2)
	require.NoError(t, c.Subscribe(subject, func(_ string, data []byte) {
		if string(data) == `"boom"` {
			panic("boom")
		}
		got <- string(data)
	}))
	require.NoError(t, c.conn.Flush())

	require.NoError(t, c.Publish(subject, "boom"))
	require.NoError(t, c.Publish(subject, "ok"))

	select {
	case v := <-got:
		assert.Equal(t, `"ok"`, v)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription died after handler panic")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, c.Drain(ctx))
}
