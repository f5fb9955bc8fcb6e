// Package history persists ingested test records as a durable snapshot and
// derives day-bucketed historical metrics independent of the in-memory
// rolling window.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ci-tooling/test-reliability/pkg/api"
)

const (
	// snapshotFilename is the single snapshot file within the data dir.
	snapshotFilename = "test-history.json"
	// SnapshotVersion is stamped into the metadata of every saved snapshot.
	SnapshotVersion = "1"
	// DefaultMaxHistoryDays is the retention window applied to day-bucketed
	// historical metrics when no explicit value is configured.
	DefaultMaxHistoryDays = 7
)

// Store owns the durable snapshot for one data directory. It is a snapshot
// store, not an append log: Save overwrites, and callers merge before saving
// when they want cumulative history. The design assumes no concurrent
// writers to the same directory.
type Store struct {
	fs             afero.Fs
	dataDir        string
	maxHistoryDays int

	now func() time.Time
}

// NewStore returns a store rooted at dataDir on the given filesystem. A
// maxHistoryDays of zero or less falls back to DefaultMaxHistoryDays.
func NewStore(fs afero.Fs, dataDir string, maxHistoryDays int) *Store {
	if maxHistoryDays <= 0 {
		maxHistoryDays = DefaultMaxHistoryDays
	}
	return &Store{
		fs:             fs,
		dataDir:        dataDir,
		maxHistoryDays: maxHistoryDays,
		now:            time.Now,
	}
}

func (s *Store) snapshotPath() string {
	return filepath.Join(s.dataDir, snapshotFilename)
}

// Save writes the full snapshot, overwriting any prior one and creating the
// data directory as needed. The metadata version and last-updated stamp are
// set here so every snapshot on disk is self-describing.
func (s *Store) Save(ctx context.Context, data api.TestData) error {
	data.Metadata.Version = SnapshotVersion
	data.Metadata.LastUpdated = s.now().UTC()

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	if err := s.fs.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir %q: %w", s.dataDir, err)
	}
	if err := afero.WriteFile(s.fs, s.snapshotPath(), raw, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", s.snapshotPath(), err)
	}
	return nil
}

// Load reads the snapshot. A missing or corrupt snapshot degrades to empty
// data with a nil error so that first-ever runs and damaged state never fail
// a CI pipeline; only genuine I/O failures propagate.
func (s *Store) Load(ctx context.Context) (api.TestData, error) {
	raw, err := afero.ReadFile(s.fs, s.snapshotPath())
	switch {
	case os.IsNotExist(err):
		return api.TestData{}, nil
	case err != nil:
		return api.TestData{}, fmt.Errorf("failed to read snapshot %q: %w", s.snapshotPath(), err)
	}

	var data api.TestData
	if err := json.Unmarshal(raw, &data); err != nil {
		logrus.WithError(err).WithField("snapshot", s.snapshotPath()).Warn("Ignoring corrupt snapshot, starting from empty history")
		return api.TestData{}, nil
	}
	return data, nil
}

// Clear removes the persisted snapshot. Unlike Load, absence here is a
// caller error that propagates: clearing something that was never persisted
// signals a usage mistake worth surfacing.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.fs.Stat(s.dataDir); err != nil {
		return fmt.Errorf("failed to clear data dir %q: %w", s.dataDir, err)
	}
	if err := s.fs.Remove(s.snapshotPath()); err != nil {
		return fmt.Errorf("failed to remove snapshot %q: %w", s.snapshotPath(), err)
	}
	return nil
}
