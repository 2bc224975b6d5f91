// Package artifact persists trained model pipelines to the local filesystem
// as opaque gob-encoded blobs.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/slasentry/prediction-service/internal/ml"
)

// FileStore implements ml.ArtifactStore on the local filesystem.
type FileStore struct{}

// NewFileStore creates a FileStore.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Load reads and decodes the artifact at path. A missing file maps to
// ml.ErrArtifactNotFound; a corrupt or truncated file returns a decode error,
// which callers treat the same way.
func (s *FileStore) Load(path string) (*ml.Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ml.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("artifact: open %s: %w", path, err)
	}
	defer f.Close()

	pipe, err := ml.DecodePipeline(f)
	if err != nil {
		return nil, fmt.Errorf("artifact: decode %s: %w", path, err)
	}
	return pipe, nil
}

// Save encodes the pipeline to a temporary file in the target directory and
// renames it into place, so a crash mid-write never leaves a truncated
// artifact behind.
func (s *FileStore) Save(path string, pipe *ml.Pipeline) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := pipe.Encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("artifact: write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: rename into %s: %w", path, err)
	}
	return nil
}
