package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"transcript-service/internal/entity"
	"transcript-service/internal/service"
)

type apiError struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiError{Detail: msg})
}

// writeServiceErr maps service errors onto status codes.
func writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		writeErr(w, http.StatusNotFound, entity.ErrNotFound.Error())
	case errors.Is(err, entity.ErrNotReady):
		writeErr(w, http.StatusBadRequest, "job not completed")
	case errors.Is(err, service.ErrInvalidRequest):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}
