package processor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/scout/internal/blacklist"
	"github.com/MikeSquared-Agency/scout/internal/graph"
	"github.com/MikeSquared-Agency/scout/internal/prefilter"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

type authors map[string]string

func (a authors) Author(ts string) (string, bool) {
	u, ok := a[ts]
	return u, ok
}

func reaction(t *testing.T, emoji, ts string) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"metadata": map[string]string{"text": emoji, "user_id": "U1", "channel_id": "C1", "message_ts": ts},
	})
	require.NoError(t, err)
	return data
}

func TestHandleReaction_Blacklist(t *testing.T) {
	bl := blacklist.NewMemory()
	h := NewHandlers(context.Background(), nil, authors{"111.1": "spammy"}, bl, testLogger())

	h.HandleReaction("scout.slack.reaction", reaction(t, ":+1:", "111.1"))
	assert.False(t, bl.IsBlacklisted("spammy"))

	h.HandleReaction("scout.slack.reaction", reaction(t, ":no_entry:", "999.9"))
	assert.False(t, bl.IsBlacklisted("spammy"))

	h.HandleReaction("scout.slack.reaction", reaction(t, ":no_entry:", "111.1"))
	assert.Equal(t, blacklist.CategorySpammer, bl.Category("spammy"))
}

func TestHandleReaction_NoReviews(t *testing.T) {
	bl := blacklist.NewMemory()
	h := NewHandlers(context.Background(), nil, nil, bl, testLogger())
	h.HandleReaction("scout.slack.reaction", reaction(t, ":no_entry:", "111.1"))
	assert.Empty(t, bl.List())
}

const sampleTranscript = "alice — 10:32\nDatabase backup failing, anyone seen this?\nbob — 10:33\nlol\n"

func countingPipeline(t *testing.T, seen *[]string) *Pipeline {
	t.Helper()
	runner := runnerFunc(func(ctx context.Context, index int, msg transcript.ChatMessage) (*graph.State, error) {
		*seen = append(*seen, msg.Username)
		return &graph.State{Index: index, Message: msg}, nil
	})
	proc := New(runner, Options{MaxConcurrent: 1, OutputDir: t.TempDir()}, testLogger())
	return NewPipeline(prefilter.New(blacklist.NewMemory(), testLogger()), proc, testLogger())
}

func TestPipelineRun(t *testing.T) {
	var seen []string
	p := countingPipeline(t, &seen)

	report, res, err := p.Run(context.Background(), transcript.Parse(sampleTranscript))
	require.NoError(t, err)
	require.Len(t, report.Candidates, 1)
	require.NotNil(t, res)
	assert.Equal(t, []string{"alice"}, seen)
	assert.Equal(t, 1, report.Rejected())
}

func TestPipelineRun_NoCandidates(t *testing.T) {
	var seen []string
	p := countingPipeline(t, &seen)

	_, res, err := p.Run(context.Background(), transcript.Parse("bob — 10:33\nlol\n"))
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Empty(t, seen)
}

func TestHandleTranscriptSubmitted(t *testing.T) {
	var seen []string
	h := NewHandlers(context.Background(), countingPipeline(t, &seen), nil, blacklist.NewMemory(), testLogger())

	inline, err := json.Marshal(map[string]string{"transcript": sampleTranscript, "source": "test"})
	require.NoError(t, err)
	h.HandleTranscriptSubmitted("scout.transcript.submitted", inline)
	assert.Equal(t, []string{"alice"}, seen)

	path := filepath.Join(t.TempDir(), "export.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleTranscript), 0o644))
	fromFile, err := json.Marshal(map[string]string{"path": path})
	require.NoError(t, err)
	h.HandleTranscriptSubmitted("scout.transcript.submitted", fromFile)
	assert.Equal(t, []string{"alice", "alice"}, seen)

	h.HandleTranscriptSubmitted("scout.transcript.submitted", []byte(`{}`))
	h.HandleTranscriptSubmitted("scout.transcript.submitted", []byte(`not json`))
	assert.Len(t, seen, 2)
}
