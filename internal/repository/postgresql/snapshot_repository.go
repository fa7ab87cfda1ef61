package postgresql

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"transcript-service/internal/entity"
)

const snapshotName = "jobs"

func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// SnapshotRepository stores the whole job snapshot as one jsonb row.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

func (r *SnapshotRepository) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS job_snapshots (
	name       text PRIMARY KEY,
	data       jsonb NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now()
);
`
	_, err := r.pool.Exec(ctx, q)
	return err
}

func (r *SnapshotRepository) Load(ctx context.Context) ([]entity.Job, error) {
	const q = `SELECT data FROM job_snapshots WHERE name = $1;`

	var data []byte
	if err := r.pool.QueryRow(ctx, q, snapshotName).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entity.DecodeSnapshot(data)
}

func (r *SnapshotRepository) Save(ctx context.Context, jobs []entity.Job) error {
	data, err := entity.EncodeSnapshot(jobs)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO job_snapshots (name, data, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at;
`
	_, err = r.pool.Exec(ctx, q, snapshotName, json.RawMessage(data))
	return err
}
