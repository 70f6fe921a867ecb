package web

import (
	"errors"
	"net/http"

	"github.com/vbonduro/listsync/internal/metrics"
	"github.com/vbonduro/listsync/internal/suggest"
)

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if s.suggester == nil {
		writeError(w, http.StatusServiceUnavailable, "suggestions are not configured")
		return
	}
	var req struct {
		Prompt string `json:"prompt"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	items, err := s.suggester.Suggest(r.Context(), req.Prompt)
	s.metrics.IncrementSuggestion(metrics.Result(err))
	if err != nil {
		if errors.Is(err, suggest.ErrPromptRequired) {
			writeError(w, http.StatusBadRequest, "Prompt is required")
			return
		}
		s.logger.Error("failed to generate suggestions", "error", err)
		writeError(w, http.StatusBadGateway, "Failed to generate suggestions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
