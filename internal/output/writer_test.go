package output

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/scout/internal/classifier"
	"github.com/MikeSquared-Agency/scout/internal/graph"
	"github.com/MikeSquared-Agency/scout/internal/transcript"
)

func testWriter(t *testing.T, dir string) *Writer {
	t.Helper()
	w := NewWriter(dir, "run42", slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return w
}

func sampleRecords() []Record {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	cand := transcript.ChatMessage{Username: "alice", Timestamp: "10:32", Text: "Database backup failing, anyone seen this?"}

	lead := &graph.State{
		Lead:  &classifier.LeadJudgment{IsLead: true, LeadScore: 0.9},
		Reply: &classifier.Reply{Text: "hi", Tone: classifier.TonePeer, CTAType: classifier.CTADMInvite},
		Path:  []graph.StageID{graph.StageTechnical, graph.StageLeadReply},
	}
	gated := &graph.State{Path: []graph.StageID{graph.StageTechnical}}

	return []Record{
		NewRecord(0, cand, lead, nil, at),
		NewRecord(1, cand, gated, nil, at),
		NewRecord(2, cand, nil, errors.New("context deadline exceeded"), at),
	}
}

func TestNewRecordPartitions(t *testing.T) {
	recs := sampleRecords()
	assert.Equal(t, PartitionLead, recs[0].Partition)
	assert.Equal(t, PartitionNoLead, recs[1].Partition)
	assert.Equal(t, graph.StageTechnical, recs[1].StoppedAt)
	assert.Equal(t, PartitionErrors, recs[2].Partition)
	assert.Equal(t, StatusError, recs[2].Status)
	assert.Equal(t, "alice", recs[2].User)
}

func TestWriteFinal(t *testing.T) {
	dir := t.TempDir()
	w := testWriter(t, dir)

	paths, err := w.WriteFinal(sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "lead_2026-03-14.json"),
		filepath.Join(dir, "no_lead_2026-03-14.json"),
		filepath.Join(dir, "errors_2026-03-14.json"),
	}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0]["user"])
	assert.Equal(t, true, got[0]["is_lead"])
	assert.Nil(t, got[0]["rag_insight"])
}

func TestWriteFinal_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "lead_2026-03-14.json")
	require.NoError(t, os.WriteFile(existing, []byte("[]"), 0o644))

	paths, err := testWriter(t, dir).WriteFinal(sampleRecords()[:1])
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "lead_2026-03-14_run42.json")}, paths)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestWritePartialAndInterrupted(t *testing.T) {
	dir := t.TempDir()
	w := testWriter(t, dir)

	paths, err := w.WritePartial(20, sampleRecords()[1:2])
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "no_lead_2026-03-14_partial_20.json")}, paths)

	paths, err = w.WriteInterrupted(sampleRecords()[2:])
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "errors_2026-03-14_partial_interrupted.json")}, paths)
}

func TestWrite_EmptySkipsFiles(t *testing.T) {
	dir := t.TempDir()
	paths, err := testWriter(t, dir).WriteFinal(nil)
	require.NoError(t, err)
	assert.Empty(t, paths)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWrite_PersistenceError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := testWriter(t, blocker).WriteFinal(sampleRecords())
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
}
