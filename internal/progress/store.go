package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the learner's progress record.
type Store interface {
	// Load returns the persisted record, or defaults when there is none.
	Load() Record
	// Save durably replaces the persisted record.
	Save(rec Record) error
	// Update runs fn on the current record and persists the result,
	// serialized against every other Load, Save and Update.
	Update(fn func(*Record) error) (Record, error)
}

// FileStore keeps the record in one JSON file, replaced atomically on save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by the file at path.
// The file and its directory are created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the progress file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(rec)
}

// Update loads, mutates and saves under the store lock. When fn fails
// nothing is written and the unchanged record is returned. A failed write
// returns the mutated record together with ErrStorageUnavailable.
func (s *FileStore) Update(fn func(*Record) error) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load()
	next := current.clone()
	if err := fn(&next); err != nil {
		return current, err
	}
	next.normalize()

	if err := s.save(next); err != nil {
		return next, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return next, nil
}

func (s *FileStore) load() Record {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("progress file unreadable, using defaults", "path", s.path, "error", err)
		}
		return Default()
	}

	rec, err := decodeRecord(data)
	if err != nil {
		slog.Warn("progress file invalid, using defaults", "path", s.path, "error", err)
		return Default()
	}
	return rec
}

// save writes to a temp file in the target directory, syncs it and renames
// it over the canonical path, so readers see either the old or the new file.
func (s *FileStore) save(rec Record) error {
	rec = rec.clone()
	rec.normalize()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding progress: %w", err)
	}

	if err := s.writeAtomic(data); err != nil {
		slog.Error("failed to save progress", "path", s.path, "error", err)
		return err
	}
	return nil
}

func (s *FileStore) writeAtomic(data []byte) (err error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating progress dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing progress file: %w", err)
	}
	return nil
}
