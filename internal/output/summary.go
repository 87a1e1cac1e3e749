package output

import "time"

// Summary describes a finished or interrupted batch.
type Summary struct {
	RunID       string        `json:"run_id"`
	Total       int           `json:"total"`
	Leads       int           `json:"leads"`
	NoLeads     int           `json:"no_leads"`
	Errors      int           `json:"errors"`
	Interrupted bool          `json:"interrupted"`
	Files       []string      `json:"files,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
}

// Summarize counts records per partition.
func Summarize(runID string, records []Record, started time.Time, elapsed time.Duration) Summary {
	s := Summary{RunID: runID, Total: len(records), StartedAt: started, Duration: elapsed}
	for _, r := range records {
		switch r.Partition {
		case PartitionLead:
			s.Leads++
		case PartitionNoLead:
			s.NoLeads++
		case PartitionErrors:
			s.Errors++
		}
	}
	return s
}
