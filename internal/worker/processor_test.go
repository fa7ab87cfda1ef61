package worker

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"transcript-service/internal/entity"
	"transcript-service/internal/media"
	"transcript-service/internal/repository/memory"
)

// recordingRepo remembers every status a job was stored with.
type recordingRepo struct {
	*memory.JobRepository

	mu      sync.Mutex
	history map[uuid.UUID][]entity.JobStatus
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{
		JobRepository: memory.NewJobRepository(context.Background(), nil, log.New(&bytes.Buffer{}, "", 0)),
		history:       map[uuid.UUID][]entity.JobStatus{},
	}
}

func (r *recordingRepo) Create(ctx context.Context, title string, src entity.Source, lang string) uuid.UUID {
	id, _ := r.JobRepository.Create(ctx, title, src, lang)
	r.mu.Lock()
	r.history[id] = []entity.JobStatus{entity.StatusQueued}
	r.mu.Unlock()
	return id
}

func (r *recordingRepo) Update(ctx context.Context, id uuid.UUID, fn func(j *entity.Job) error) (bool, error) {
	var status entity.JobStatus
	applied, err := r.JobRepository.Update(ctx, id, func(j *entity.Job) error {
		if err := fn(j); err != nil {
			return err
		}
		status = j.Status()
		return nil
	})
	if applied {
		r.mu.Lock()
		r.history[id] = append(r.history[id], status)
		r.mu.Unlock()
	}
	return applied, err
}

func (r *recordingRepo) statuses(id uuid.UUID) []entity.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.JobStatus(nil), r.history[id]...)
}

type fakeSource struct {
	fetch func(ctx context.Context, id uuid.UUID, url string) (media.Audio, error)
}

func (f *fakeSource) Fetch(ctx context.Context, id uuid.UUID, url string) (media.Audio, error) {
	return f.fetch(ctx, id, url)
}

type fakeTranscriber struct {
	transcribe func(ctx context.Context, path, lang string) ([]string, error)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, path, lang string) ([]string, error) {
	return f.transcribe(ctx, path, lang)
}

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func newTestProcessor(repo JobRepo, src AudioSource, tr Transcriber) *Processor {
	return NewProcessor(repo, src, tr, log.New(&bytes.Buffer{}, "", 0))
}

func TestProcessor_UploadJobReachesDone(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	audio := writeAudio(t)
	id := repo.Create(ctx, "clip.wav", entity.Source{Kind: entity.SourceUpload, Path: audio}, "en")

	tr := &fakeTranscriber{transcribe: func(ctx context.Context, path, lang string) ([]string, error) {
		if path != audio || lang != "en" {
			t.Fatalf("Transcribe(%q, %q)", path, lang)
		}
		return []string{" Hello", "world.", "Bye "}, nil
	}}
	src := &fakeSource{fetch: func(ctx context.Context, id uuid.UUID, url string) (media.Audio, error) {
		t.Fatal("upload jobs must not fetch")
		return media.Audio{}, nil
	}}

	if err := newTestProcessor(repo, src, tr).Process(ctx, id); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := []entity.JobStatus{entity.StatusQueued, entity.StatusProcessing, entity.StatusTranscribing, entity.StatusDone}
	if got := repo.statuses(id); !reflect.DeepEqual(got, want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	j, _ := repo.GetByID(ctx, id)
	if tr, ok := j.Transcript(); !ok || tr != "Hello world. Bye" {
		t.Fatalf("transcript = %q,%v", tr, ok)
	}
	if j.Title != "clip.wav" {
		t.Fatalf("title = %q", j.Title)
	}
	if _, err := os.Stat(audio); !os.IsNotExist(err) {
		t.Fatalf("audio file not removed: %v", err)
	}
}

func TestProcessor_URLJobRewritesTitle(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	audio := writeAudio(t)
	id := repo.Create(ctx, "https://youtu.be/x", entity.Source{Kind: entity.SourceURL, URL: "https://youtu.be/x"}, "ru")

	src := &fakeSource{fetch: func(ctx context.Context, got uuid.UUID, url string) (media.Audio, error) {
		if got != id || url != "https://youtu.be/x" {
			t.Fatalf("Fetch(%s, %q)", got, url)
		}
		return media.Audio{Path: audio, Title: "Me at the zoo"}, nil
	}}
	tr := &fakeTranscriber{transcribe: func(ctx context.Context, path, lang string) ([]string, error) {
		return []string{"elephants"}, nil
	}}

	if err := newTestProcessor(repo, src, tr).Process(ctx, id); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	want := []entity.JobStatus{entity.StatusQueued, entity.StatusDownloading, entity.StatusTranscribing, entity.StatusDone}
	if got := repo.statuses(id); !reflect.DeepEqual(got, want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	j, _ := repo.GetByID(ctx, id)
	if j.Title != "Me at the zoo" {
		t.Fatalf("title = %q", j.Title)
	}
}

func TestProcessor_AcquisitionFailure(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	id := repo.Create(ctx, "u", entity.Source{Kind: entity.SourceURL, URL: "https://youtu.be/gone"}, "en")

	src := &fakeSource{fetch: func(ctx context.Context, id uuid.UUID, url string) (media.Audio, error) {
		return media.Audio{}, errors.New("video unavailable")
	}}
	tr := &fakeTranscriber{transcribe: func(ctx context.Context, path, lang string) ([]string, error) {
		t.Fatal("transcriber must not run after acquisition failure")
		return nil, nil
	}}

	err := newTestProcessor(repo, src, tr).Process(ctx, id)
	var se *entity.StageError
	if !errors.As(err, &se) || se.Stage != entity.StageAcquisition {
		t.Fatalf("Process() error = %v, want acquisition StageError", err)
	}

	j, _ := repo.GetByID(ctx, id)
	msg, ok := j.Failure()
	if j.Status() != entity.StatusError || !ok || !strings.Contains(msg, "video unavailable") {
		t.Fatalf("job = %s %q", j.Status(), msg)
	}
	if _, ok := j.Transcript(); ok {
		t.Fatal("errored job must not have a transcript")
	}
	want := []entity.JobStatus{entity.StatusQueued, entity.StatusDownloading, entity.StatusError}
	if got := repo.statuses(id); !reflect.DeepEqual(got, want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
}

func TestProcessor_TranscriptionFailure(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	id := repo.Create(ctx, "a.wav", entity.Source{Kind: entity.SourceUpload, Path: writeAudio(t)}, "en")

	tr := &fakeTranscriber{transcribe: func(ctx context.Context, path, lang string) ([]string, error) {
		return []string{"partial"}, errors.New("model unavailable")
	}}

	err := newTestProcessor(repo, nil, tr).Process(ctx, id)
	var se *entity.StageError
	if !errors.As(err, &se) || se.Stage != entity.StageTranscription {
		t.Fatalf("Process() error = %v", err)
	}

	j, _ := repo.GetByID(ctx, id)
	if msg, _ := j.Failure(); msg != "transcription failed: model unavailable" {
		t.Fatalf("failure = %q", msg)
	}
	if _, ok := j.Transcript(); ok {
		t.Fatal("partial transcript persisted")
	}
}

func TestProcessor_DeletedWhileTranscribing(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	audio := writeAudio(t)
	id := repo.Create(ctx, "a.wav", entity.Source{Kind: entity.SourceUpload, Path: audio}, "en")

	tr := &fakeTranscriber{transcribe: func(ctx context.Context, path, lang string) ([]string, error) {
		if err := repo.Delete(ctx, id); err != nil {
			t.Fatalf("delete: %v", err)
		}
		return []string{"done anyway"}, nil
	}}

	if err := newTestProcessor(repo, nil, tr).Process(ctx, id); err != nil {
		t.Fatalf("Process() error = %v, want nil for deleted job", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("deleted job resurrected: %v", err)
	}
	if _, err := os.Stat(audio); !os.IsNotExist(err) {
		t.Fatalf("audio file not removed: %v", err)
	}
}

func TestProcessor_DeletedBeforeStart(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	id := repo.Create(ctx, "a.wav", entity.Source{Kind: entity.SourceUpload, Path: "/nope"}, "en")
	_ = repo.Delete(ctx, id)

	if err := newTestProcessor(repo, nil, nil).Process(ctx, id); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
}

func TestProcessor_RefusesNonQueuedJob(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	id := repo.Create(ctx, "a", entity.Source{Kind: entity.SourceURL, URL: "https://x"}, "en")
	_, _ = repo.Update(ctx, id, func(j *entity.Job) error { return j.Fail("earlier", j.UpdatedAt) })

	if err := newTestProcessor(repo, nil, nil).Process(ctx, id); err == nil {
		t.Fatal("expected error for terminal job")
	}
	j, _ := repo.GetByID(ctx, id)
	if msg, _ := j.Failure(); msg != "earlier" {
		t.Fatalf("terminal job changed: %q", msg)
	}
}

func TestProcessor_PanicFailsJob(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	id := repo.Create(ctx, "a.wav", entity.Source{Kind: entity.SourceUpload, Path: writeAudio(t)}, "en")

	tr := &fakeTranscriber{transcribe: func(ctx context.Context, path, lang string) ([]string, error) {
		panic("boom")
	}}

	if err := newTestProcessor(repo, nil, tr).Process(ctx, id); err == nil {
		t.Fatal("expected error")
	}
	j, _ := repo.GetByID(ctx, id)
	if msg, _ := j.Failure(); !strings.Contains(msg, "boom") {
		t.Fatalf("failure = %q", msg)
	}
}
