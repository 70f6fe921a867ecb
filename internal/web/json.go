package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vbonduro/listsync/internal/service"
	"github.com/vbonduro/listsync/internal/storage"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// writeAppError maps ListApp errors onto status codes. Display messages
// are passed through unchanged.
func (s *Server) writeAppError(w http.ResponseWriter, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrListNotFound):
		writeError(w, http.StatusNotFound, "list not found")
	case errors.Is(err, service.ErrNoCurrentList):
		writeError(w, http.StatusConflict, "no list is open")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, storage.Message(err, fallback))
	case errors.Is(err, storage.ErrAlreadyJoined):
		writeError(w, http.StatusConflict, storage.Message(err, fallback))
	default:
		s.logger.Warn("request failed", "error", err)
		writeError(w, http.StatusBadGateway, storage.Message(err, fallback))
	}
}
