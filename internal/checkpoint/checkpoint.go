// Package checkpoint persists partial scrape results so long-running jobs can
// resume after interruption. A store tracks which work units are done plus
// the records accumulated so far; it is superseded by the final output file
// and removed once a job completes.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"HagwonScanner/internal/domain"
)

type state struct {
	Processed []string        `json:"processed"`
	Records   []domain.Record `json:"records"`
	LastSaved string          `json:"last_saved,omitempty"`
}

// Store is a file-backed checkpoint. Each job owns its store exclusively for
// the duration of a run, so saves are read-fully-then-overwrite.
type Store struct {
	path      string
	processed map[string]struct{}
	records   []domain.Record
	interval  int
	sinceSave int
}

// Open loads the checkpoint at path if it exists, or starts an empty one.
// interval is the number of completed work units between automatic saves.
func Open(path string, interval int) (*Store, error) {
	if interval <= 0 {
		interval = 10
	}
	s := &Store{
		path:      path,
		processed: map[string]struct{}{},
		interval:  interval,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", path, err)
	}

	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	for _, key := range st.Processed {
		s.processed[key] = struct{}{}
	}
	s.records = st.Records
	return s, nil
}

// Done reports whether a work unit was already completed in a previous run.
func (s *Store) Done(key string) bool {
	_, ok := s.processed[key]
	return ok
}

// Complete marks a work unit done and accumulates its records.
func (s *Store) Complete(key string, records ...domain.Record) {
	s.processed[key] = struct{}{}
	s.records = append(s.records, records...)
	s.sinceSave++
}

// Records returns everything accumulated so far, including prior runs.
func (s *Store) Records() []domain.Record {
	return s.records
}

// ProcessedCount returns the number of completed work units.
func (s *Store) ProcessedCount() int {
	return len(s.processed)
}

// MaybeSave persists the store if enough work completed since the last save.
func (s *Store) MaybeSave() error {
	if s.sinceSave < s.interval {
		return nil
	}
	return s.Save()
}

// Save persists the store unconditionally.
func (s *Store) Save() error {
	keys := make([]string, 0, len(s.processed))
	for key := range s.processed {
		keys = append(keys, key)
	}

	data, err := json.Marshal(state{
		Processed: keys,
		Records:   s.records,
		LastSaved: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", s.path, err)
	}
	s.sinceSave = 0
	return nil
}

// Remove deletes the checkpoint file after the final output is written.
func (s *Store) Remove() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove checkpoint %s: %w", s.path, err)
	}
	return nil
}
