package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/MikeSquared-Agency/scout/internal/llm"
	"github.com/MikeSquared-Agency/scout/internal/retrieval"
)

// scriptedInvoker answers each op with a canned JSON document or error.
type scriptedInvoker struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	users   map[string]string
}

func newScripted() *scriptedInvoker {
	return &scriptedInvoker{replies: map[string]string{}, errs: map[string]error{}, users: map[string]string{}}
}

func (s *scriptedInvoker) Invoke(ctx context.Context, op, system, user string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[op] = user
	if err := s.errs[op]; err != nil {
		return err
	}
	raw, ok := s.replies[op]
	if !ok {
		return &llm.InferenceError{Op: op, Kind: llm.KindUpstream, Err: errors.New("no scripted reply")}
	}
	return json.Unmarshal([]byte(raw), out)
}

type stubRetriever struct {
	passages []retrieval.Passage
	err      error
	query    string
}

func (r *stubRetriever) Search(ctx context.Context, query string, topK int, threshold float64) ([]retrieval.Passage, error) {
	r.query = query
	return r.passages, r.err
}

type stubCompleter struct {
	reply string
	err   error
	last  llm.CompletionRequest
	calls int
}

func (c *stubCompleter) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	c.calls++
	c.last = req
	return c.reply, c.err
}
