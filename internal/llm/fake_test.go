package llm

import (
	"context"
	"sync"
)

type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
	last  CompletionRequest
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.reply, f.err
}
