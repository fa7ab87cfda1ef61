package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"transcript-service/internal/entity"
)

const (
	DefaultMaxContextChars = 15000
	truncationMarker       = "...[TRUNCATED]"
)

var ErrInvalidRequest = errors.New("invalid request")

// JobRepository is the job store port (implementation: memory.JobRepository).
type JobRepository interface {
	Create(ctx context.Context, title string, src entity.Source, language string) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Job, error)
	Update(ctx context.Context, id uuid.UUID, fn func(j *entity.Job) error) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]entity.Job, error)
}

// Launcher starts a job pipeline in the background (implementation: worker.Pool).
type Launcher interface {
	Launch(id uuid.UUID) error
}

// Assistant answers questions about a transcript.
type Assistant interface {
	Answer(ctx context.Context, contextText, question string) (string, error)
}

type Options struct {
	DefaultLanguage string
	MaxContextChars int
}

// JobService is the entry point for the job lifecycle: it creates jobs,
// hands them to the launcher and answers queries against the store.
type JobService struct {
	repo      JobRepository
	launcher  Launcher
	assistant Assistant
	opts      Options
	logger    *log.Logger
}

func NewJobService(repo JobRepository, launcher Launcher, assistant Assistant, opts Options, logger *log.Logger) *JobService {
	if opts.MaxContextChars <= 0 {
		opts.MaxContextChars = DefaultMaxContextChars
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "ru"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &JobService{repo: repo, launcher: launcher, assistant: assistant, opts: opts, logger: logger}
}

type SubmitRequest struct {
	Source   entity.Source
	Language string
	// Title defaults to the URL for URL sources.
	Title string
}

// Submit registers a job and starts its pipeline without waiting for it.
func (s *JobService) Submit(ctx context.Context, req SubmitRequest) (uuid.UUID, error) {
	title := strings.TrimSpace(req.Title)

	switch req.Source.Kind {
	case entity.SourceURL:
		raw := strings.TrimSpace(req.Source.URL)
		if err := validateURL(raw); err != nil {
			return uuid.Nil, err
		}
		req.Source = entity.Source{Kind: entity.SourceURL, URL: raw}
		if title == "" {
			title = raw
		}
	case entity.SourceUpload:
		if strings.TrimSpace(req.Source.Path) == "" {
			return uuid.Nil, fmt.Errorf("%w: upload path is required", ErrInvalidRequest)
		}
		req.Source = entity.Source{Kind: entity.SourceUpload, Path: req.Source.Path}
		if title == "" {
			title = "upload"
		}
	default:
		return uuid.Nil, fmt.Errorf("%w: unknown source kind %q", ErrInvalidRequest, req.Source.Kind)
	}

	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = s.opts.DefaultLanguage
	}

	id, err := s.repo.Create(ctx, title, req.Source, lang)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.launcher.Launch(id); err != nil {
		msg := fmt.Sprintf("not started: %v", err)
		_, _ = s.repo.Update(ctx, id, func(j *entity.Job) error {
			return j.Fail(msg, time.Now().UTC())
		})
		s.logger.Printf("[service] job_id=%s launch error=%v", id, err)
		return id, fmt.Errorf("launch job: %w", err)
	}

	s.logger.Printf("[service] job_id=%s source=%s language=%s status=queued", id, req.Source.Kind, lang)
	return id, nil
}

func (s *JobService) Status(ctx context.Context, id uuid.UUID) (*entity.Job, error) {
	return s.repo.GetByID(ctx, id)
}

// Result returns the transcript of a done job.
func (s *JobService) Result(ctx context.Context, id uuid.UUID) (string, error) {
	j, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	t, ok := j.Transcript()
	if !ok {
		return "", fmt.Errorf("%w: status is %s", entity.ErrNotReady, j.Status())
	}
	return t, nil
}

func (s *JobService) List(ctx context.Context) ([]entity.Job, error) {
	return s.repo.List(ctx)
}

// Remove deletes the job record. A pipeline still running for it keeps
// running; its later writes are dropped by the store.
func (s *JobService) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Printf("[service] job_id=%s deleted", id)
	return nil
}

// Ask answers a question about a done job's transcript. Assistant failures
// come back as an answer text starting with "Error:", not as an error.
func (s *JobService) Ask(ctx context.Context, id uuid.UUID, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", ErrInvalidRequest)
	}
	transcript, err := s.Result(ctx, id)
	if err != nil {
		return "", err
	}

	contextText, truncated := truncateRunes(transcript, s.opts.MaxContextChars)
	if truncated {
		s.logger.Printf("[service] job_id=%s transcript truncated to %d chars for chat", id, s.opts.MaxContextChars)
	}

	answer, err := s.assistant.Answer(ctx, contextText, question)
	if err != nil {
		s.logger.Printf("[service] job_id=%s chat error=%v", id, err)
		return fmt.Sprintf("Error: %v - make sure the assistant service is running and its model is available", err), nil
	}
	return answer, nil
}

func truncateRunes(s string, max int) (string, bool) {
	if utf8.RuneCountInString(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + truncationMarker, true
		}
		n++
	}
	return s, false
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http(s) url", ErrInvalidRequest)
	}
	return nil
}
