package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	for _, p := range []Passage{
		{URL: "https://docs.example.com/supabase", SectionPath: "Integrations > Supabase", Text: "Connect Supabase from the integrations panel to enable auth and storage."},
		{URL: "https://docs.example.com/domains", SectionPath: "Publishing > Custom domains", Text: "Custom domains require a CNAME record pointing to your project."},
		{URL: "https://docs.example.com/stripe", SectionPath: "Integrations > Stripe", Text: "Stripe payments need a secret key stored in Supabase edge function secrets."},
	} {
		require.NoError(t, s.AddChunk(ctx, p))
	}
	return s
}

func TestSQLiteSearch(t *testing.T) {
	s := seeded(t)

	got, err := s.Search(context.Background(), "custom domain CNAME?", 3, 0)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "https://docs.example.com/domains", got[0].URL)
	for _, p := range got {
		assert.GreaterOrEqual(t, p.Score, 0.0)
		assert.Less(t, p.Score, 1.0)
	}
}

func TestSQLiteSearch_TopK(t *testing.T) {
	s := seeded(t)

	got, err := s.Search(context.Background(), "supabase stripe", 1, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteSearch_ThresholdAndNoMatch(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	got, err := s.Search(ctx, "custom domain", 3, 0.9999)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Search(ctx, "kubernetes", 3, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Search(ctx, `"*:()`, 3, 0)
	require.NoError(t, err, "punctuation-only queries must not reach FTS5 as syntax")
	assert.Empty(t, got)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, NoMatches, Format(nil))

	out := Format([]Passage{
		{URL: "https://a", SectionPath: "A > B", Text: "alpha"},
		{URL: "https://b", Text: "beta"},
	})
	assert.Equal(t, "[1] URL: https://a\n    section: A > B\n---\nalpha\n\n[2] URL: https://b\n    section: -\n---\nbeta", out)
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"custom" OR "domain"`, ftsQuery("Custom domain?"))
	assert.Equal(t, "", ftsQuery("?!"))
}
