// Package snapshot persists the scheduler's plan and run state as YAML so a
// session survives a daemon restart.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"studybuddy/internal/scheduler"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot saved")

// Store reads and writes one snapshot file. Saves and clears are
// serialized, so the file always holds the most recently captured state.
type Store struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewStore creates a Store for path on fs. A nil fs means the OS filesystem.
func NewStore(fs afero.Fs, path string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, path: path}
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the saved snapshot.
func (s *Store) Load() (scheduler.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap scheduler.Snapshot
	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snap, ErrNoSnapshot
		}
		return snap, fmt.Errorf("read snapshot file: %w", err)
	}

	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return snap, fmt.Errorf("parse snapshot yaml: %w", err)
	}
	return snap, nil
}

// Save writes snap, replacing any previous snapshot.
func (s *Store) Save(snap scheduler.Snapshot) error {
	return s.SaveFrom(func() scheduler.Snapshot { return snap })
}

// SaveFrom captures a snapshot with capture and writes it while holding the
// store lock, so a capture can never be overwritten by an older one.
func (s *Store) SaveFrom(capture func() scheduler.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	serialized, err := yaml.Marshal(capture())
	if err != nil {
		return fmt.Errorf("marshal snapshot yaml: %w", err)
	}

	// Written next to the target and renamed so a crash never leaves half a snapshot.
	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(serialized)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		_ = s.fs.Remove(tmpName)
		if writeErr == nil {
			writeErr = closeErr
		}
		return fmt.Errorf("write snapshot file: %w", writeErr)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}

// Clear removes the saved snapshot, if any.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove snapshot file: %w", err)
	}
	return nil
}
