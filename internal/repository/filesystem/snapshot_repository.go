package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"transcript-service/internal/entity"
)

// SnapshotRepository keeps the job snapshot in a single JSON file.
type SnapshotRepository struct {
	path string
}

func NewSnapshotRepository(path string) *SnapshotRepository {
	return &SnapshotRepository{path: path}
}

// Load returns no jobs when the file does not exist yet.
func (s *SnapshotRepository) Load(ctx context.Context) ([]entity.Job, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return entity.DecodeSnapshot(data)
}

// Save rewrites the file through a temp file and rename, so readers never
// see a half-written snapshot.
func (s *SnapshotRepository) Save(ctx context.Context, jobs []entity.Job) error {
	data, err := entity.EncodeSnapshot(jobs)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
