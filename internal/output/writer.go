package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PersistenceError reports a snapshot file that could not be written.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Writer writes one file per non-empty partition into Dir. Final files are
// never overwritten; partial snapshots are.
type Writer struct {
	dir    string
	runID  string
	logger *slog.Logger
	now    func() time.Time
}

func NewWriter(dir, runID string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, runID: runID, logger: logger, now: time.Now}
}

// WritePartial snapshots records after n completions.
func (w *Writer) WritePartial(n int, records []Record) ([]string, error) {
	return w.write(records, fmt.Sprintf("_partial_%d", n), false)
}

// WriteInterrupted snapshots records after the batch was cancelled.
func (w *Writer) WriteInterrupted(records []Record) ([]string, error) {
	return w.write(records, "_partial_interrupted", false)
}

// WriteFinal writes the end-of-batch files.
func (w *Writer) WriteFinal(records []Record) ([]string, error) {
	return w.write(records, "", true)
}

func (w *Writer) write(records []Record, suffix string, final bool) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, &PersistenceError{Path: w.dir, Err: err}
	}

	date := w.now().Format("2006-01-02")
	groups := Group(records)

	var written []string
	var errs []error
	for _, p := range Partitions {
		entries := groups[p]
		if len(entries) == 0 {
			continue
		}

		path := filepath.Join(w.dir, fmt.Sprintf("%s_%s%s.json", p, date, suffix))
		if final && exists(path) {
			path = filepath.Join(w.dir, fmt.Sprintf("%s_%s_%s.json", p, date, w.runID))
		}

		if err := writeJSON(path, entries); err != nil {
			errs = append(errs, &PersistenceError{Path: path, Err: err})
			continue
		}
		w.logger.Info("results written", "path", path, "count", len(entries))
		written = append(written, path)
	}
	return written, errors.Join(errs...)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".scout-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
