package blacklist

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_MissingFile(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "blacklist.json"), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, s.List())
}

func TestOpen_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := Open(path, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, s.List())
}

func TestOpen_NullFileIsEmptyAndWritable(t *testing.T) {
	for _, content := range []string{"null", "{}", " null\n"} {
		path := filepath.Join(t.TempDir(), "blacklist.json")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		s, err := Open(path, discardLogger())
		require.NoError(t, err)
		assert.Empty(t, s.List())

		require.NotPanics(t, func() {
			added, err := s.Add("bob", CategorySpammer, "x")
			require.NoError(t, err)
			assert.True(t, added)
		}, "content %q", content)
		assert.True(t, s.IsBlacklisted("bob"))
	}
}

func TestOpen_LegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.json")
	legacy := `{
  "modbot": {"category": "admin", "added_date": "2025-03-14T09:26:53.589793", "reason": "Pattern detected: welcome..."},
  "vipuser": {"category": "vip", "added_date": "2025-03-14T09:27:00", "reason": "manual"},
  "newer": {"category": "recruiter", "added_at": "2025-04-01T10:00:00Z", "reason": "hiring"}
}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s, err := Open(path, discardLogger())
	require.NoError(t, err)

	e, ok := s.Get("modbot")
	require.True(t, ok)
	assert.Equal(t, CategoryAdmin, e.Category)
	assert.Equal(t, time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC), e.AddedAt)

	e, ok = s.Get("newer")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC), e.AddedAt)

	assert.False(t, s.IsBlacklisted("vipuser"), "unknown categories are dropped")
	assert.Len(t, s.List(), 2)
}

func TestAdd_FirstWriteWins(t *testing.T) {
	s := NewMemory()

	added, err := s.Add("spammy", CategorySpammer, "Behavior: 12 messages")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.Add("spammy", CategoryAdmin, "later detection")
	require.NoError(t, err)
	assert.False(t, added)

	e, ok := s.Get("spammy")
	require.True(t, ok)
	assert.Equal(t, CategorySpammer, e.Category)
	assert.Equal(t, "Behavior: 12 messages", e.Reason)
}

func TestAdd_InvalidCategory(t *testing.T) {
	s := NewMemory()
	_, err := s.Add("x", Category("vip"), "")
	assert.ErrorIs(t, err, ErrInvalidCategory)
	assert.False(t, s.IsBlacklisted("x"))
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "blacklist.json")

	s, err := Open(path, discardLogger())
	require.NoError(t, err)
	_, err = s.Add("recruit", CategoryRecruiter, "Pattern detected: we're hiring")
	require.NoError(t, err)
	_, err = s.Add("mod", CategoryAdmin, "manual")
	require.NoError(t, err)

	reopened, err := Open(path, discardLogger())
	require.NoError(t, err)
	assert.True(t, reopened.IsBlacklisted("recruit"))
	assert.Equal(t, CategoryAdmin, reopened.Category("mod"))

	removed, err := reopened.Remove("mod")
	require.NoError(t, err)
	assert.True(t, removed)

	again, err := Open(path, discardLogger())
	require.NoError(t, err)
	assert.False(t, again.IsBlacklisted("mod"))
	assert.Equal(t, Category(""), again.Category("mod"))
}

func TestRemove_Missing(t *testing.T) {
	removed, err := NewMemory().Remove("ghost")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStats(t *testing.T) {
	s := NewMemory()
	for _, u := range []string{"a", "b"} {
		_, err := s.Add(u, CategorySpammer, "")
		require.NoError(t, err)
	}
	_, err := s.Add("c", CategoryAdmin, "")
	require.NoError(t, err)

	assert.Equal(t, map[Category]int{CategorySpammer: 2, CategoryAdmin: 1}, s.Stats())
}

func TestExportTSV(t *testing.T) {
	s := NewMemory()
	s.nowFunc = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	_, err := s.Add("zed", CategorySpammer, "")
	require.NoError(t, err)
	_, err = s.Add("amy", CategoryAdmin, "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.ExportTSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"amy\tadmin\t2026-03-01T12:00:00Z",
		"zed\tspammer\t2026-03-01T12:00:00Z",
	}, lines)
}

func TestConcurrentAdds(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "blacklist.json"), discardLogger())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wins := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added, err := s.Add("same", CategorySpammer, "race")
			assert.NoError(t, err)
			wins <- added
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for w := range wins {
		if w {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
