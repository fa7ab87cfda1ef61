package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"transcript-service/internal/entity"
)

const snapshotName = "jobs"

// Open opens (and creates) the SQLite database at path.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	// WAL is an optimisation; some filesystems refuse it.
	_, _ = db.Exec(`
		PRAGMA busy_timeout = 5000;
		PRAGMA journal_mode = WAL;
	`)
	return db, nil
}

// SnapshotRepository stores the job snapshot as one row.
type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(ctx context.Context, db *sql.DB) (*SnapshotRepository, error) {
	const q = `
CREATE TABLE IF NOT EXISTS job_snapshots (
	name       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at DATETIME NOT NULL
);
`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return nil, err
	}
	return &SnapshotRepository{db: db}, nil
}

func (s *SnapshotRepository) Load(ctx context.Context) ([]entity.Job, error) {
	const q = `SELECT data FROM job_snapshots WHERE name = ?`

	var data []byte
	if err := s.db.QueryRowContext(ctx, q, snapshotName).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entity.DecodeSnapshot(data)
}

func (s *SnapshotRepository) Save(ctx context.Context, jobs []entity.Job) error {
	data, err := entity.EncodeSnapshot(jobs)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO job_snapshots (name, data, updated_at)
VALUES (?, ?, datetime('now'))
ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at;
`
	_, err = s.db.ExecContext(ctx, q, snapshotName, data)
	return err
}
