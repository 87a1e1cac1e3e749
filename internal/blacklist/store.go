// Package blacklist persists users whose messages are skipped by the
// pre-filter. The store is a JSON side file flushed after every mutation.
package blacklist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Category is the archetype a user was blacklisted as.
type Category string

const (
	CategoryAdmin     Category = "admin"
	CategorySpammer   Category = "spammer"
	CategoryRecruiter Category = "recruiter"
	CategoryHelper    Category = "helper"
)

// ErrInvalidCategory is returned when adding a user under an unknown category.
var ErrInvalidCategory = errors.New("invalid blacklist category")

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryAdmin, CategorySpammer, CategoryRecruiter, CategoryHelper:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Entry is a single blacklisted user.
type Entry struct {
	Username string    `json:"username"`
	Category Category  `json:"category"`
	Reason   string    `json:"reason"`
	AddedAt  time.Time `json:"added_at"`
}

type record struct {
	Category Category  `json:"category"`
	Reason   string    `json:"reason"`
	AddedAt  time.Time `json:"added_at"`
}

// Store is safe for concurrent use. Writers are serialised and every
// mutation is on disk before the call returns.
type Store struct {
	mu      sync.RWMutex
	users   map[string]record
	path    string // empty for in-memory stores
	logger  *slog.Logger
	nowFunc func() time.Time
}

// Open loads the store at path. A missing or corrupt file yields an empty
// store; only I/O errors other than "not exist" are returned.
func Open(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		users:   make(map[string]record),
		path:    path,
		logger:  logger,
		nowFunc: time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read blacklist: %w", err)
	}

	users, err := decode(data, logger)
	if err != nil {
		logger.Warn("blacklist file corrupted, starting fresh", "path", path, "error", err)
		return s, nil
	}
	s.users = users
	return s, nil
}

// storedRecord also accepts files written by the earlier tooling, which
// used "added_date" with a zone-less ISO timestamp.
type storedRecord struct {
	Category  string `json:"category"`
	Reason    string `json:"reason"`
	AddedAt   string `json:"added_at"`
	AddedDate string `json:"added_date"`
}

var addedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// decode never returns a nil map. Entries with an unknown category are
// dropped with a warning.
func decode(data []byte, logger *slog.Logger) (map[string]record, error) {
	var stored map[string]storedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}

	users := make(map[string]record, len(stored))
	for username, r := range stored {
		cat, err := ParseCategory(r.Category)
		if err != nil {
			logger.Warn("dropping blacklist entry", "username", username, "error", err)
			continue
		}
		ts := r.AddedAt
		if ts == "" {
			ts = r.AddedDate
		}
		users[username] = record{Category: cat, Reason: r.Reason, AddedAt: parseAdded(ts)}
	}
	return users, nil
}

// parseAdded returns the zero time for missing or unreadable timestamps.
func parseAdded(ts string) time.Time {
	for _, layout := range addedLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NewMemory returns a store that is never written to disk.
func NewMemory() *Store {
	return &Store{
		users:   make(map[string]record),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		nowFunc: time.Now,
	}
}

func (s *Store) IsBlacklisted(username string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[username]
	return ok
}

// Category returns the user's category, or "" if the user is not listed.
func (s *Store) Category(username string) Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[username].Category
}

// Get returns the entry for username.
func (s *Store) Get(username string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.users[username]
	if !ok {
		return Entry{}, false
	}
	return Entry{Username: username, Category: r.Category, Reason: r.Reason, AddedAt: r.AddedAt}, true
}

// Add blacklists username. The first write wins: adding an existing user is
// a no-op and reports false.
func (s *Store) Add(username string, category Category, reason string) (bool, error) {
	if _, err := ParseCategory(string(category)); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return false, nil
	}
	s.users[username] = record{Category: category, Reason: reason, AddedAt: s.nowFunc().UTC()}
	if err := s.flush(); err != nil {
		delete(s.users, username)
		return false, err
	}

	s.logger.Info("user blacklisted", "username", username, "category", category)
	return true, nil
}

// Remove deletes username and reports whether it was present.
func (s *Store) Remove(username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.users[username]
	if !ok {
		return false, nil
	}
	delete(s.users, username)
	if err := s.flush(); err != nil {
		s.users[username] = r
		return false, err
	}

	s.logger.Info("user removed from blacklist", "username", username)
	return true, nil
}

// Stats counts entries per category.
func (s *Store) Stats() map[Category]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := make(map[Category]int)
	for _, r := range s.users {
		stats[r.Category]++
	}
	return stats
}

// List returns every entry sorted by category, then username.
func (s *Store) List() []Entry {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.users))
	for u, r := range s.users {
		entries = append(entries, Entry{Username: u, Category: r.Category, Reason: r.Reason, AddedAt: r.AddedAt})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}
		return entries[i].Username < entries[j].Username
	})
	return entries
}

// ExportTSV writes one "username<TAB>category<TAB>added_at" line per entry.
func (s *Store) ExportTSV(w io.Writer) error {
	for _, e := range s.List() {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", e.Username, e.Category, e.AddedAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
	}
	return nil
}

// flush writes the store atomically. Callers hold s.mu.
func (s *Store) flush() error {
	if s.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal blacklist: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".blacklist-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write blacklist: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync blacklist: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close blacklist: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename blacklist: %w", err)
	}
	return nil
}
