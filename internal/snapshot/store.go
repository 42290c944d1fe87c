// Package snapshot persists the service snapshot as a single JSON document
// and serves it to readers.
package snapshot

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/couchcryptid/ride-height-service/internal/domain"
)

var (
	// ErrNoSnapshot is returned when no snapshot has been written yet.
	ErrNoSnapshot = errors.New("no snapshot available")
	// ErrWriterBusy is returned when another process holds the writer lock.
	ErrWriterBusy = errors.New("snapshot writer lock held by another process")
)

// Store reads and atomically replaces the snapshot file.
type Store struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewStore creates a store for the snapshot at path. The writer lock lives
// next to it in path + ".lock".
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the current snapshot.
func (s *Store) Load() (domain.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	snap, err := domain.UnmarshalSnapshot(data)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load snapshot %s: %w", s.path, err)
	}
	return snap, nil
}

// Lock takes the cross-process writer lock. The returned function releases it.
func (s *Store) Lock() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire writer lock: %w", err)
	}
	if !ok {
		return nil, ErrWriterBusy
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release writer lock", "error", err)
		}
	}, nil
}

// Replace writes snap to a temporary file in the snapshot directory, syncs it
// and renames it over the current snapshot, so readers see either the old or
// the new document and never a partial one.
func (s *Store) Replace(snap domain.Snapshot) error {
	data, err := domain.MarshalSnapshot(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err = os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	s.logger.Debug("snapshot replaced", "path", s.path, "run_id", snap.RunID, "bytes", len(data))
	return nil
}
