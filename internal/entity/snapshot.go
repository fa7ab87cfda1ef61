package entity

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// jobRecord is the persisted form of a Job, keyed by id in the snapshot.
type jobRecord struct {
	Status     JobStatus `json:"status"`
	Title      string    `json:"title"`
	Transcript *string   `json:"transcript,omitempty"`
	Error      *string   `json:"error,omitempty"`
	Source     Source    `json:"source"`
	Language   string    `json:"language,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EncodeSnapshot serializes jobs as one id -> record JSON object.
func EncodeSnapshot(jobs []Job) ([]byte, error) {
	out := make(map[string]jobRecord, len(jobs))
	for _, j := range jobs {
		rec := jobRecord{
			Status:    j.status,
			Title:     j.Title,
			Source:    j.Source,
			Language:  j.Language,
			CreatedAt: j.CreatedAt,
			UpdatedAt: j.UpdatedAt,
		}
		if t, ok := j.Transcript(); ok {
			rec.Transcript = &t
		}
		if f, ok := j.Failure(); ok {
			rec.Error = &f
		}
		out[j.ID.String()] = rec
	}
	return json.MarshalIndent(out, "", "  ")
}

// DecodeSnapshot parses a snapshot written by EncodeSnapshot.
// Jobs come back in creation order. Any record that breaks the job
// invariants fails the whole decode.
func DecodeSnapshot(data []byte) ([]Job, error) {
	var in map[string]jobRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(in))
	for key, rec := range in {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("snapshot: bad job id %q: %w", key, err)
		}
		if !rec.Status.Valid() {
			return nil, fmt.Errorf("snapshot: job %s: unknown status %q", key, rec.Status)
		}

		hasTranscript := rec.Transcript != nil
		hasError := rec.Error != nil
		switch {
		case rec.Status == StatusDone && (!hasTranscript || hasError),
			rec.Status == StatusError && (!hasError || hasTranscript),
			!rec.Status.Terminal() && (hasTranscript || hasError):
			return nil, fmt.Errorf("snapshot: job %s: result fields do not match status %s", key, rec.Status)
		}

		j := Job{
			ID:        id,
			Title:     rec.Title,
			Source:    rec.Source,
			Language:  rec.Language,
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
			status:    rec.Status,
		}
		if hasTranscript {
			j.transcript = *rec.Transcript
		}
		if hasError {
			j.failure = *rec.Error
		}
		jobs = append(jobs, j)
	}

	sort.Slice(jobs, func(a, b int) bool {
		if !jobs[a].CreatedAt.Equal(jobs[b].CreatedAt) {
			return jobs[a].CreatedAt.Before(jobs[b].CreatedAt)
		}
		return jobs[a].ID.String() < jobs[b].ID.String()
	})
	return jobs, nil
}
