package retrieval

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLite searches an FTS5 index in a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the index at path. Pass ":memory:"
// for tests.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging index: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) ensureSchema() error {
	_, err := s.db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS doc_chunks_fts USING fts5(
		url UNINDEXED,
		section_path UNINDEXED,
		content
	)`)
	if err != nil {
		return fmt.Errorf("creating fts table: %w", err)
	}
	return nil
}

// AddChunk indexes one documentation chunk.
func (s *SQLite) AddChunk(ctx context.Context, p Passage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO doc_chunks_fts (url, section_path, content) VALUES (?, ?, ?)`,
		p.URL, p.SectionPath, p.Text,
	)
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

func (s *SQLite) Search(ctx context.Context, query string, topK int, threshold float64) ([]Passage, error) {
	match := ftsQuery(query)
	if match == "" || topK <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT url, section_path, content, bm25(doc_chunks_fts)
		 FROM doc_chunks_fts
		 WHERE doc_chunks_fts MATCH ?
		 ORDER BY bm25(doc_chunks_fts)`,
		match,
	)
	if err != nil {
		return nil, fmt.Errorf("FTS search: %w", err)
	}
	defer rows.Close()

	var out []Passage
	for rows.Next() {
		var p Passage
		var rank float64
		if err := rows.Scan(&p.URL, &p.SectionPath, &p.Text, &rank); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		// bm25 is negative, lower is better.
		relevance := -rank
		if relevance < 0 {
			relevance = 0
		}
		p.Score = relevance / (1 + relevance)
		if p.Score < threshold {
			continue
		}
		out = append(out, p)
		if len(out) == topK {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passages: %w", err)
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// ftsQuery quotes every term so user text cannot inject FTS5 syntax.
func ftsQuery(query string) string {
	words := terms(query)
	for i, w := range words {
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " OR ")
}
