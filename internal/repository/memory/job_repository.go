package memory

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"transcript-service/internal/entity"
)

// SaveTimeout bounds one snapshot write.
const SaveTimeout = 5 * time.Second

// Snapshotter persists the complete job set. Save always receives every job;
// implementations overwrite whatever they stored before.
type Snapshotter interface {
	Load(ctx context.Context) ([]entity.Job, error)
	Save(ctx context.Context, jobs []entity.Job) error
}

// JobRepository is the in-process job registry. Every read and write goes
// through one RWMutex, and each mutation rewrites the snapshot before the
// lock is released, so snapshots are written in mutation order.
type JobRepository struct {
	mu    sync.RWMutex
	jobs  map[uuid.UUID]entity.Job
	order []uuid.UUID

	snap   Snapshotter
	logger *log.Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

// NewJobRepository loads the last snapshot. A missing or unreadable snapshot
// gives an empty registry. Jobs that were still in flight when the snapshot
// was written are marked as errored, since nothing will resume them.
// snap may be nil for a registry without durability.
func NewJobRepository(ctx context.Context, snap Snapshotter, logger *log.Logger) *JobRepository {
	if logger == nil {
		logger = log.Default()
	}
	r := &JobRepository{
		jobs:   make(map[uuid.UUID]entity.Job),
		snap:   snap,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.New,
	}
	r.load(ctx)
	return r
}

func (r *JobRepository) load(ctx context.Context) {
	if r.snap == nil {
		return
	}

	jobs, err := r.snap.Load(ctx)
	if err != nil {
		r.logger.Printf("[store] load snapshot error=%v, starting empty", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	interrupted := 0
	for _, j := range jobs {
		if st := j.Status(); !st.Terminal() {
			if err := j.Fail(fmt.Sprintf("interrupted: service restarted while job was %s", st), r.now()); err == nil {
				interrupted++
			}
		}
		r.jobs[j.ID] = j
		r.order = append(r.order, j.ID)
	}

	r.logger.Printf("[store] loaded jobs=%d interrupted=%d", len(jobs), interrupted)
	if interrupted > 0 {
		r.persistLocked(ctx)
	}
}

// Create inserts a queued job and returns its id. A failed snapshot write is
// logged; the job stays registered in memory.
func (r *JobRepository) Create(ctx context.Context, title string, src entity.Source, language string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for {
		if _, taken := r.jobs[id]; !taken {
			break
		}
		id = r.newID()
	}

	r.jobs[id] = entity.NewJob(id, title, src, language, r.now())
	r.order = append(r.order, id)
	r.persistLocked(ctx)
	return id, nil
}

// GetByID returns a copy of the job.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &j, nil
}

// Update runs fn on a copy of the job and stores the result if fn returns nil.
// applied is false when the job no longer exists; that is not an error.
func (r *JobRepository) Update(ctx context.Context, id uuid.UUID, fn func(j *entity.Job) error) (applied bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return false, nil
	}
	if err := fn(&j); err != nil {
		return false, err
	}
	j.ID = id

	r.jobs[id] = j
	r.persistLocked(ctx)
	return true, nil
}

func (r *JobRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[id]; !ok {
		return entity.ErrNotFound
	}
	delete(r.jobs, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.persistLocked(ctx)
	return nil
}

// List returns all jobs in insertion order.
func (r *JobRepository) List(ctx context.Context) ([]entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked(), nil
}

func (r *JobRepository) listLocked() []entity.Job {
	out := make([]entity.Job, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.jobs[id])
	}
	return out
}

func (r *JobRepository) persistLocked(ctx context.Context) {
	if r.snap == nil {
		return
	}
	// detached from the caller, bounded so a stalled backend cannot hold the lock
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), SaveTimeout)
	defer cancel()

	if err := r.snap.Save(ctx, r.listLocked()); err != nil {
		r.logger.Printf("[store] persist error=%v jobs=%d", err, len(r.jobs))
	}
}
