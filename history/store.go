// Package history persists the append-only price log as a JSON array,
// bounded to the most recent 1000 observations.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dkarlsen/yochiwatch/models"
)

// maxRecords caps the log; the oldest entries are evicted first.
const maxRecords = 1000

// Store holds the in-memory log and rewrites the backing file on each append.
// No locking: the design assumes one process instance runs a check at a time,
// and overlapping writers degrade to last-writer-wins on the full rewrite.
type Store struct {
	path    string
	records []models.PriceRecord
}

// Open loads the log at path. A missing file yields an empty log. A file that
// fails to parse is moved aside to <path>.corrupt and the log starts empty, so
// one bad write never wedges every later run.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read price history: %w", err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		slog.Warn("price history unreadable, starting empty",
			slog.String("path", path),
			slog.Any("error", err),
		)
		if renameErr := os.Rename(path, path+".corrupt"); renameErr != nil {
			slog.Warn("could not move corrupt price history aside", slog.Any("error", renameErr))
		}
		s.records = nil
		return s, nil
	}
	return s, nil
}

// Append records one observation, evicts beyond the cap, and rewrites the file.
func (s *Store) Append(rec models.PriceRecord) error {
	s.records = append(s.records, rec)
	if len(s.records) > maxRecords {
		trimmed := make([]models.PriceRecord, maxRecords)
		copy(trimmed, s.records[len(s.records)-maxRecords:])
		s.records = trimmed
	}

	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode price history: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write price history: %w", err)
	}
	return nil
}

// Records returns a copy of the current log, oldest first.
func (s *Store) Records() []models.PriceRecord {
	out := make([]models.PriceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len reports the number of stored observations.
func (s *Store) Len() int {
	return len(s.records)
}
