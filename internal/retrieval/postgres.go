package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres searches a doc_chunks table with built-in full-text search.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema creates the chunk table and its search index.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS doc_chunks (
			id           BIGSERIAL PRIMARY KEY,
			url          TEXT NOT NULL,
			section_path TEXT NOT NULL DEFAULT '',
			content      TEXT NOT NULL,
			tsv          TSVECTOR GENERATED ALWAYS AS (to_tsvector('english', content)) STORED
		);
		CREATE INDEX IF NOT EXISTS doc_chunks_tsv_idx ON doc_chunks USING GIN (tsv);
	`)
	if err != nil {
		return fmt.Errorf("create doc_chunks: %w", err)
	}
	return nil
}

func (p *Postgres) AddChunk(ctx context.Context, c Passage) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO doc_chunks (url, section_path, content) VALUES ($1, $2, $3)`,
		c.URL, c.SectionPath, c.Text,
	)
	if err != nil {
		return fmt.Errorf("insert chunk: %w", err)
	}
	return nil
}

// Search ranks with ts_rank_cd normalisation 32, which maps rank to
// rank/(rank+1).
func (p *Postgres) Search(ctx context.Context, query string, topK int, threshold float64) ([]Passage, error) {
	if len(terms(query)) == 0 || topK <= 0 {
		return nil, nil
	}

	rows, err := p.pool.Query(ctx, `
		SELECT url, section_path, content, ts_rank_cd(tsv, q, 32) AS score
		FROM doc_chunks, websearch_to_tsquery('english', $1) AS q
		WHERE tsv @@ q AND ts_rank_cd(tsv, q, 32) >= $2
		ORDER BY score DESC
		LIMIT $3`,
		query, threshold, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("search doc_chunks: %w", err)
	}
	defer rows.Close()

	var out []Passage
	for rows.Next() {
		var c Passage
		var score float32
		if err := rows.Scan(&c.URL, &c.SectionPath, &c.Text, &score); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		c.Score = float64(score)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passages: %w", err)
	}
	return out, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
