// Package store persists run records and manages the cloned-content cache.
// Each run is one JSON document named by timestamp; records are append-only
// and never rewritten.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"scout/internal/model"
)

// RunStore writes and lists run records under a base directory.
type RunStore struct {
	dir string
	now func() time.Time
}

// NewRunStore creates the runs directory if needed.
func NewRunStore(baseDir string) (*RunStore, error) {
	dir := filepath.Join(baseDir, "runs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create runs directory: %w", err)
	}
	return &RunStore{dir: dir, now: time.Now}, nil
}

// Save writes a record as runs/<YYYYMMDD_HHMMSS>.json and returns the path.
// Records landing in the same second get a numeric suffix; an existing
// record is never overwritten.
func (s *RunStore) Save(record model.RunRecord) (string, error) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run record: %w", err)
	}

	stamp := s.now().Format("20060102_150405")
	for i := 0; ; i++ {
		name := stamp + ".json"
		if i > 0 {
			name = fmt.Sprintf("%s_%02d.json", stamp, i)
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return "", fmt.Errorf("write run record: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("write run record: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("write run record: %w", err)
		}
		return path, nil
	}
}

// Recent returns up to limit records, newest first. Unreadable or corrupt
// files are skipped.
func (s *RunStore) Recent(limit int) ([]model.RunRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read runs directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var records []model.RunRecord
	for _, name := range names {
		if limit > 0 && len(records) >= limit {
			break
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var record model.RunRecord
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
