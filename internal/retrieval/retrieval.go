// Package retrieval searches indexed product documentation for passages
// relevant to a short query.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// NoMatches is handed to the summarizer when nothing cleared the threshold.
const NoMatches = "No matching documentation passages found."

// Passage is one documentation chunk. Score is normalised to [0,1).
type Passage struct {
	URL         string  `json:"url"`
	SectionPath string  `json:"section_path"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
}

// Retriever returns at most topK passages scoring at least threshold, best
// first. An empty result is not an error.
type Retriever interface {
	Search(ctx context.Context, query string, topK int, threshold float64) ([]Passage, error)
}

// Format renders passages as numbered context blocks for a model prompt.
func Format(passages []Passage) string {
	if len(passages) == 0 {
		return NoMatches
	}
	parts := make([]string, 0, len(passages))
	for i, p := range passages {
		section := p.SectionPath
		if section == "" {
			section = "-"
		}
		parts = append(parts, fmt.Sprintf("[%d] URL: %s\n    section: %s\n---\n%s", i+1, p.URL, section, p.Text))
	}
	return strings.Join(parts, "\n\n")
}

// terms splits a free-text query into lower-cased alphanumeric words.
func terms(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
