package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

var (
	ErrPoolClosed      = errors.New("worker pool is shutting down")
	ErrAlreadyLaunched = errors.New("job already launched")
)

type Runner interface {
	Process(ctx context.Context, id uuid.UUID) error
}

// Pool starts one goroutine per job. Runs are detached from the caller's
// context. With a positive limit, at most that many jobs execute at once and
// the rest wait (still queued) for a slot.
type Pool struct {
	runner Runner
	sem    *semaphore.Weighted
	logger *log.Logger

	mu      sync.Mutex
	closed  bool
	running map[uuid.UUID]struct{}
	wg      sync.WaitGroup
}

func NewPool(runner Runner, limit int, logger *log.Logger) *Pool {
	if logger == nil {
		logger = log.Default()
	}
	p := &Pool{
		runner:  runner,
		logger:  logger,
		running: make(map[uuid.UUID]struct{}),
	}
	if limit > 0 {
		p.sem = semaphore.NewWeighted(int64(limit))
	}
	return p
}

// Launch starts the job in the background and returns immediately.
func (p *Pool) Launch(id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	if _, ok := p.running[id]; ok {
		return ErrAlreadyLaunched
	}
	p.running[id] = struct{}{}
	p.wg.Add(1)

	go p.run(id)
	return nil
}

func (p *Pool) run(id uuid.UUID) {
	defer func() {
		p.mu.Lock()
		delete(p.running, id)
		p.mu.Unlock()
		p.wg.Done()
	}()

	ctx := context.Background()
	if p.sem != nil {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			p.logger.Printf("[pool] job_id=%s acquire error=%v", id, err)
			return
		}
		defer p.sem.Release(1)
	}

	if err := p.runner.Process(ctx, id); err != nil {
		p.logger.Printf("[pool] job_id=%s process error: %v", id, err)
	}
}

// Running returns the number of launched jobs that have not finished.
func (p *Pool) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.running)
}

// Shutdown stops accepting jobs and waits for launched ones until ctx ends.
// Jobs still running when ctx ends are left to the process exit.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Println("[pool] all jobs finished")
		return nil
	case <-ctx.Done():
		p.logger.Printf("[pool] shutdown timeout, running=%d", p.Running())
		return ctx.Err()
	}
}
