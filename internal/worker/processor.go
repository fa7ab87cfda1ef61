package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"transcript-service/internal/entity"
	"transcript-service/internal/media"
)

type JobRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	Update(ctx context.Context, id uuid.UUID, fn func(j *entity.Job) error) (bool, error)
}

// AudioSource resolves a media URL into a local audio file.
type AudioSource interface {
	Fetch(ctx context.Context, jobID uuid.UUID, url string) (media.Audio, error)
}

// Transcriber turns an audio file into ordered text segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) ([]string, error)
}

// errJobGone means the job was deleted while its pipeline was running.
var errJobGone = errors.New("job deleted")

// Processor drives one job through its pipeline:
// queued -> downloading|processing -> transcribing -> done, or error from
// any of those.
type Processor struct {
	repo        JobRepo
	source      AudioSource
	transcriber Transcriber
	logger      *log.Logger

	removeFile func(name string) error
	now        func() time.Time
}

func NewProcessor(repo JobRepo, source AudioSource, transcriber Transcriber, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	return &Processor{
		repo:        repo,
		source:      source,
		transcriber: transcriber,
		logger:      logger,
		removeFile:  os.Remove,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Process runs the pipeline of a queued job. Collaborator failures end the
// job in error and are returned for logging; they never affect other jobs.
func (p *Processor) Process(ctx context.Context, id uuid.UUID) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = p.fail(ctx, id, fmt.Errorf("internal error: %v", r), start)
		}
	}()

	job, err := p.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			p.logger.Printf("[worker] job_id=%s deleted before start, skipped", id)
			return nil
		}
		return err
	}
	if st := job.Status(); st != entity.StatusQueued {
		return fmt.Errorf("job %s is %s, only queued jobs can run", id, st)
	}

	var (
		audioPath string
		title     string
	)

	switch job.Source.Kind {
	case entity.SourceURL:
		if err := p.advance(ctx, id, entity.StatusDownloading, ""); err != nil {
			return p.abort(ctx, id, err, "", start)
		}
		audio, fetchErr := p.source.Fetch(ctx, id, job.Source.URL)
		if fetchErr != nil {
			return p.fail(ctx, id, &entity.StageError{Stage: entity.StageAcquisition, Err: fetchErr}, start)
		}
		audioPath, title = audio.Path, audio.Title

	case entity.SourceUpload:
		if err := p.advance(ctx, id, entity.StatusProcessing, ""); err != nil {
			return p.abort(ctx, id, err, job.Source.Path, start)
		}
		audioPath = job.Source.Path

	default:
		return p.fail(ctx, id, fmt.Errorf("unknown source kind %q", job.Source.Kind), start)
	}

	if err := p.advance(ctx, id, entity.StatusTranscribing, title); err != nil {
		return p.abort(ctx, id, err, audioPath, start)
	}
	p.logger.Printf("[worker] job_id=%s source=%s status=transcribing language=%s", id, job.Source.Kind, job.Language)

	segments, trErr := p.transcriber.Transcribe(ctx, audioPath, job.Language)
	if trErr != nil {
		p.cleanup(id, audioPath)
		return p.fail(ctx, id, &entity.StageError{Stage: entity.StageTranscription, Err: trErr}, start)
	}
	transcript := strings.TrimSpace(strings.Join(segments, " "))
	p.cleanup(id, audioPath)

	applied, err := p.repo.Update(ctx, id, func(j *entity.Job) error {
		return j.Complete(transcript, p.now())
	})
	if err != nil {
		return p.fail(ctx, id, err, start)
	}
	if !applied {
		return p.abort(ctx, id, errJobGone, "", start)
	}

	p.logger.Printf("[worker] job_id=%s status=done chars=%d duration_ms=%d",
		id, len(transcript), time.Since(start).Milliseconds(),
	)
	return nil
}

// advance moves the job to an intermediate status, rewriting the title when
// one is given.
func (p *Processor) advance(ctx context.Context, id uuid.UUID, to entity.JobStatus, title string) error {
	applied, err := p.repo.Update(ctx, id, func(j *entity.Job) error {
		if err := j.Advance(to, p.now()); err != nil {
			return err
		}
		if title != "" {
			j.Title = title
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		return errJobGone
	}
	return nil
}

// abort handles an advance failure: a deleted job is dropped quietly along
// with its local audio, anything else fails the job.
func (p *Processor) abort(ctx context.Context, id uuid.UUID, err error, audioPath string, start time.Time) error {
	if !errors.Is(err, errJobGone) {
		return p.fail(ctx, id, err, start)
	}
	p.logger.Printf("[worker] job_id=%s deleted during processing, result discarded duration_ms=%d",
		id, time.Since(start).Milliseconds(),
	)
	p.cleanup(id, audioPath)
	return nil
}

func (p *Processor) fail(ctx context.Context, id uuid.UUID, cause error, start time.Time) error {
	msg := cause.Error()
	applied, err := p.repo.Update(ctx, id, func(j *entity.Job) error {
		return j.Fail(msg, p.now())
	})
	if err != nil {
		p.logger.Printf("[worker] job_id=%s set_error error=%v", id, err)
	} else if !applied {
		p.logger.Printf("[worker] job_id=%s deleted during processing, failure discarded", id)
	}

	p.logger.Printf("[worker] job_id=%s status=error duration_ms=%d error=%s",
		id, time.Since(start).Milliseconds(), msg,
	)
	return cause
}

// cleanup removes the local audio file; failures are only logged.
func (p *Processor) cleanup(id uuid.UUID, path string) {
	if path == "" {
		return
	}
	if err := p.removeFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Printf("[worker] job_id=%s cleanup path=%s error=%v", id, path, err)
	}
}
