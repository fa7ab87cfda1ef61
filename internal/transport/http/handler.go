package httptransport

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"transcript-service/internal/entity"
	"transcript-service/internal/media"
	"transcript-service/internal/service"
)

// Uploads stores uploaded media and returns the local path
// (implementation: media.UploadStore).
type Uploads interface {
	Save(filename string, r io.Reader) (string, error)
	Remove(path string) error
}

type Handler struct {
	jobSvc  *service.JobService
	uploads Uploads
	// maxUpload caps the request body of POST /api/upload; 0 means unlimited.
	maxUpload int64
	logger    *log.Logger
}

func NewHandler(jobSvc *service.JobService, uploads Uploads, maxUpload int64, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{jobSvc: jobSvc, uploads: uploads, maxUpload: maxUpload, logger: logger}
}

type processDTO struct {
	URL      string `json:"url"`
	Language string `json:"language,omitempty"`
}

type chatDTO struct {
	JobID    string `json:"job_id"`
	Question string `json:"question"`
}

type submitResp struct {
	JobID string `json:"job_id"`
}

type statusResp struct {
	Status entity.JobStatus `json:"status"`
	Title  string           `json:"title"`
	Error  *string          `json:"error,omitempty"`
}

type resultResp struct {
	Transcript string `json:"transcript"`
}

type jobItem struct {
	ID     string           `json:"id"`
	Status entity.JobStatus `json:"status"`
	Title  string           `json:"title"`
	Date   string           `json:"date"`
}

type chatResp struct {
	Answer string `json:"answer"`
}

type deleteResp struct {
	Status string `json:"status"`
}

type messageResp struct {
	Message string `json:"message"`
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResp{Message: "transcript service is running"})
}

// Process godoc
// @Summary Transcribe media from a URL
// @Description Registers a job and starts download and transcription in the background.
// @Tags jobs
// @Accept json
// @Produce json
// @Param request body processDTO true "media url and optional language"
// @Success 200 {object} submitResp
// @Failure 400 {object} apiError
// @Failure 403 {object} apiError
// @Failure 500 {object} apiError
// @Security ApiKeyAuth
// @Router /api/process [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var dto processDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	id, err := h.jobSvc.Submit(r.Context(), service.SubmitRequest{
		Source:   entity.Source{Kind: entity.SourceURL, URL: dto.URL},
		Language: dto.Language,
	})
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResp{JobID: id.String()})
}

// Upload godoc
// @Summary Transcribe an uploaded media file
// @Tags jobs
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "audio or video file"
// @Param language formData string false "transcription language"
// @Success 200 {object} submitResp
// @Failure 400 {object} apiError
// @Failure 403 {object} apiError
// @Failure 413 {object} apiError
// @Failure 500 {object} apiError
// @Security ApiKeyAuth
// @Router /api/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		// headroom for the multipart envelope
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeErr(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	path, err := h.uploads.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, media.ErrUploadTooLarge) {
			writeErr(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		h.logger.Printf("[http] upload save error=%v", err)
		writeErr(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	lang := r.FormValue("language")
	if lang == "" {
		lang = r.URL.Query().Get("language")
	}

	id, err := h.jobSvc.Submit(r.Context(), service.SubmitRequest{
		Source:   entity.Source{Kind: entity.SourceUpload, Path: path},
		Language: lang,
		Title:    media.DisplayName(header.Filename),
	})
	if err != nil {
		// no runner will pick the file up
		if rmErr := h.uploads.Remove(path); rmErr != nil {
			h.logger.Printf("[http] upload cleanup path=%s error=%v", path, rmErr)
		}
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, submitResp{JobID: id.String()})
}

// Status godoc
// @Summary Get job status
// @Tags jobs
// @Produce json
// @Param job_id path string true "job id (uuid)"
// @Success 200 {object} statusResp
// @Failure 404 {object} apiError
// @Security ApiKeyAuth
// @Router /api/status/{job_id} [get]
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}
	j, err := h.jobSvc.Status(r.Context(), id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	resp := statusResp{Status: j.Status(), Title: j.Title}
	if msg, failed := j.Failure(); failed {
		resp.Error = &msg
	}
	writeJSON(w, http.StatusOK, resp)
}

// Result godoc
// @Summary Get job transcript
// @Tags jobs
// @Produce json
// @Param job_id path string true "job id (uuid)"
// @Success 200 {object} resultResp
// @Failure 400 {object} apiError "job not completed"
// @Failure 404 {object} apiError
// @Security ApiKeyAuth
// @Router /api/result/{job_id} [get]
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}
	transcript, err := h.jobSvc.Result(r.Context(), id)
	if err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resultResp{Transcript: transcript})
}

// ListJobs godoc
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} jobItem
// @Security ApiKeyAuth
// @Router /api/jobs [get]
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobSvc.List(r.Context())
	if err != nil {
		writeServiceErr(w, err)
		return
	}

	items := make([]jobItem, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, jobItem{
			ID:     j.ID.String(),
			Status: j.Status(),
			Title:  j.Title,
			Date:   j.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// DeleteJob godoc
// @Summary Delete a job
// @Description Removes the record; a pipeline still running for it finishes without writing back.
// @Tags jobs
// @Produce json
// @Param job_id path string true "job id (uuid)"
// @Success 200 {object} deleteResp
// @Failure 404 {object} apiError
// @Security ApiKeyAuth
// @Router /api/job/{job_id} [delete]
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobIDParam(w, r)
	if !ok {
		return
	}
	if err := h.jobSvc.Remove(r.Context(), id); err != nil {
		writeServiceErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResp{Status: "deleted"})
}

// Chat godoc
// @Summary Ask a question about a transcript
// @Description Assistant failures are returned as an answer starting with "Error:".
// @Tags chat
// @Accept json
// @Produce json
// @Param request body chatDTO true "job id and question"
// @Success 200 {object} chatResp
// @Failure 400 {object} apiError "unknown job, job not completed or empty question"
// @Security ApiKeyAuth
// @Router /api/chat [post]
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var dto chatDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := uuid.Parse(strings.TrimSpace(dto.JobID))
	if err != nil {
		writeErr(w, http.StatusBadRequest, "job not found or not completed")
		return
	}

	answer, err := h.jobSvc.Ask(r.Context(), id, dto.Question)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, chatResp{Answer: answer})
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, entity.ErrNotReady):
		writeErr(w, http.StatusBadRequest, "job not found or not completed")
	default:
		writeServiceErr(w, err)
	}
}

// jobIDParam parses {job_id}; a malformed id cannot name a job, so it is a 404.
func jobIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "job_id"))
	if err != nil {
		writeErr(w, http.StatusNotFound, entity.ErrNotFound.Error())
		return uuid.Nil, false
	}
	return id, true
}
