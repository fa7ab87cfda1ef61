package entity

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("job not found")
	ErrNotReady          = errors.New("job not ready")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Stage names the pipeline step a StageError comes from.
type Stage string

const (
	StageAcquisition   Stage = "acquisition"
	StageTranscription Stage = "transcription"
)

// StageError is a pipeline failure tagged with the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
