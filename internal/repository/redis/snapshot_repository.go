package redisrepo

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"transcript-service/internal/entity"
)

// SnapshotRepository stores the job snapshot under a single string key.
type SnapshotRepository struct {
	rdb *redis.Client
	key string
}

func NewSnapshotRepository(rdb *redis.Client, key string) *SnapshotRepository {
	if key == "" {
		key = "transcripts:jobs"
	}
	return &SnapshotRepository{rdb: rdb, key: key}
}

func (r *SnapshotRepository) Load(ctx context.Context) ([]entity.Job, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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
	return r.rdb.Set(ctx, r.key, data, 0).Err()
}
