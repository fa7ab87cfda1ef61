package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusDownloading  JobStatus = "downloading"
	StatusProcessing   JobStatus = "processing"
	StatusTranscribing JobStatus = "transcribing"
	StatusDone         JobStatus = "done"
	StatusError        JobStatus = "error"
)

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusDownloading, StatusProcessing, StatusTranscribing, StatusDone, StatusError:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible from s.
func (s JobStatus) Terminal() bool {
	return s == StatusDone || s == StatusError
}

type SourceKind string

const (
	SourceURL    SourceKind = "url"
	SourceUpload SourceKind = "upload"
)

// Source describes where the media of a job comes from.
// URL is set for SourceURL, Path for SourceUpload.
type Source struct {
	Kind SourceKind `json:"kind"`
	URL  string     `json:"url,omitempty"`
	Path string     `json:"path,omitempty"`
}

// Job is a transcription job record.
//
// status, transcript and failure are only changed through Advance, Complete
// and Fail, so a transcript exists only for done jobs and a failure only for
// errored ones.
type Job struct {
	ID        uuid.UUID
	Title     string
	Source    Source
	Language  string
	CreatedAt time.Time
	UpdatedAt time.Time

	status     JobStatus
	transcript string
	failure    string
}

// NewJob returns a queued job.
func NewJob(id uuid.UUID, title string, src Source, language string, now time.Time) Job {
	return Job{
		ID:        id,
		Title:     title,
		Source:    src,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
		status:    StatusQueued,
	}
}

func (j Job) Status() JobStatus { return j.status }

// Transcript returns the transcript of a done job.
func (j Job) Transcript() (string, bool) {
	if j.status != StatusDone {
		return "", false
	}
	return j.transcript, true
}

// Failure returns the error text of a failed job.
func (j Job) Failure() (string, bool) {
	if j.status != StatusError {
		return "", false
	}
	return j.failure, true
}

// Advance moves the job to an intermediate status.
// done and error are reached through Complete and Fail.
func (j *Job) Advance(to JobStatus, now time.Time) error {
	if to.Terminal() {
		return fmt.Errorf("%w: %s -> %s requires Complete or Fail", ErrInvalidTransition, j.status, to)
	}
	if !canTransition(j.status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.status, to)
	}
	j.status = to
	j.UpdatedAt = now
	return nil
}

// Complete stores the transcript and marks the job done.
func (j *Job) Complete(transcript string, now time.Time) error {
	if !canTransition(j.status, StatusDone) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.status, StatusDone)
	}
	j.status = StatusDone
	j.transcript = transcript
	j.UpdatedAt = now
	return nil
}

// Fail records the cause and marks the job errored.
func (j *Job) Fail(cause string, now time.Time) error {
	if !canTransition(j.status, StatusError) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.status, StatusError)
	}
	j.status = StatusError
	j.failure = cause
	j.UpdatedAt = now
	return nil
}

func canTransition(from, to JobStatus) bool {
	switch from {
	case StatusQueued:
		return to == StatusDownloading || to == StatusProcessing || to == StatusError
	case StatusDownloading, StatusProcessing:
		return to == StatusTranscribing || to == StatusError
	case StatusTranscribing:
		return to == StatusDone || to == StatusError
	default:
		return false
	}
}
