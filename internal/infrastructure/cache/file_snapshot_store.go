package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// ErrInvalidSnapshotKey indicates a key that cannot be mapped to a file name
var ErrInvalidSnapshotKey = errors.New("cache: invalid snapshot key")

// FileSnapshotStore keeps one <key>.json file per snapshot under a directory.
// Writes go to a temp file that is renamed into place, so readers never see a
// partially written snapshot.
type FileSnapshotStore struct {
	dir string
}

// NewFileSnapshotStore creates the store, creating dir if needed
func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if dir == "" {
		return nil, errors.New("cache: snapshot directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: failed to create snapshot directory: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

// Dir returns the snapshot directory
func (s *FileSnapshotStore) Dir() string {
	return s.dir
}

func (s *FileSnapshotStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSnapshotKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Load reads the snapshot for key
func (s *FileSnapshotStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: failed to read snapshot %s: %w", key, err)
	}
	return data, true, nil
}

// Save atomically replaces the snapshot for key
func (s *FileSnapshotStore) Save(_ context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("cache: failed to write snapshot %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("cache: failed to sync snapshot %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("cache: failed to close snapshot %s: %w", key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("cache: failed to publish snapshot %s: %w", key, err)
	}
	return nil
}

// Delete removes the snapshot for key
func (s *FileSnapshotStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cache: failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

// Ensure FileSnapshotStore implements SnapshotStore
var _ sales.SnapshotStore = (*FileSnapshotStore)(nil)
