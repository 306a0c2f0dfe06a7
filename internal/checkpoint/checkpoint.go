// Package checkpoint persists crawl resume state between runs.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// timestampLayout matches the checkpoint file's last_updated format.
const timestampLayout = "2006-01-02 15:04:05"

// State is the durable resume point for the crawl. It is read once at
// process start and rewritten after every page fetch and on every
// termination path.
type State struct {
	EndDate     string `json:"current_end_date"`
	Offset      int    `json:"current_offset"`
	LastUpdated string `json:"last_updated"`
}

// FileStore keeps the checkpoint in a single JSON file, rewritten
// atomically so a reader on the next run never observes a partial write.
type FileStore struct {
	path       string
	defaultEnd string
	now        func() time.Time
}

// NewFileStore creates a store at path. defaultEndDate seeds the state
// when the file is missing or unparseable.
func NewFileStore(path, defaultEndDate string) *FileStore {
	return &FileStore{path: path, defaultEnd: defaultEndDate, now: time.Now}
}

// Load returns the last-persisted state. A missing, unreadable, or corrupt
// file yields the defaults; corruption is never fatal.
func (s *FileStore) Load() State {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return s.defaults()
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return s.defaults()
	}
	if st.EndDate == "" || st.Offset < 0 {
		return s.defaults()
	}
	return st
}

func (s *FileStore) defaults() State {
	return State{EndDate: s.defaultEnd}
}

// Save overwrites the checkpoint: the new state is written to a temp file
// in the same directory and renamed over the old one.
func (s *FileStore) Save(endDate string, offset int) error {
	st := State{
		EndDate:     endDate,
		Offset:      offset,
		LastUpdated: s.now().Format(timestampLayout),
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}
