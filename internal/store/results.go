package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/scout/internal/output"
)

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "postgres" }

// Consume appends one candidate result. Re-delivery of the same run and
// index is ignored.
func (s *Store) Consume(ctx context.Context, runID string, rec output.Record) error {
	run, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("parse run id: %w", err)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO candidate_results (id, run_id, candidate_index, partition, username, is_lead, lead_score, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (run_id, candidate_index) DO NOTHING`,
		uuid.New(), run, rec.Index, string(rec.Partition), rec.User, rec.IsLead, rec.LeadScore, payload,
	)
	if err != nil {
		return fmt.Errorf("insert candidate result: %w", err)
	}
	return nil
}

// BatchCompleted records the run summary.
func (s *Store) BatchCompleted(ctx context.Context, sum output.Summary) error {
	run, err := uuid.Parse(sum.RunID)
	if err != nil {
		return fmt.Errorf("parse run id: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO batch_runs (run_id, total, leads, no_leads, errors, interrupted, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			total = EXCLUDED.total, leads = EXCLUDED.leads, no_leads = EXCLUDED.no_leads,
			errors = EXCLUDED.errors, interrupted = EXCLUDED.interrupted, finished_at = now()`,
		run, sum.Total, sum.Leads, sum.NoLeads, sum.Errors, sum.Interrupted, sum.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch run: %w", err)
	}
	return nil
}

// PartitionCounts returns how many results a run stored per partition.
func (s *Store) PartitionCounts(ctx context.Context, runID string) (map[output.Partition]int, error) {
	run, err := uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("parse run id: %w", err)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT partition, count(*) FROM candidate_results
		WHERE run_id = $1 GROUP BY partition`, run)
	if err != nil {
		return nil, fmt.Errorf("count results: %w", err)
	}
	defer rows.Close()

	out := make(map[output.Partition]int)
	for rows.Next() {
		var p string
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		out[output.Partition(p)] = n
	}
	return out, rows.Err()
}

// RecentLeads returns the newest lead records, most recent first.
func (s *Store) RecentLeads(ctx context.Context, limit int) ([]output.Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM candidate_results
		WHERE is_lead
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leads: %w", err)
	}
	defer rows.Close()

	var out []output.Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		var rec output.Record
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode lead: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
