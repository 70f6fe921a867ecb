package web

import (
	"net/http"

	"github.com/vbonduro/listsync/internal/domain"
)

type itemsRequest struct {
	Items []domain.SelectedRecentItem `json:"items"`
	// Stage puts the items in the overlay selection instead of the list.
	Stage bool `json:"stage,omitempty"`
}

func (s *Server) handleAddItems(w http.ResponseWriter, r *http.Request) {
	var req itemsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Stage {
		s.app.AddMultipleSelected(req.Items)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.noContent(w, s.app.QuickAddMultiple(r.Context(), req.Items), "failed to add items")
}

func (s *Server) handleClearItems(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.app.ClearAll(r.Context()), "failed to clear items")
}

func (s *Server) handleToggleItem(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.app.ToggleItem(r.Context(), r.PathValue("id")), "failed to toggle item")
}

func (s *Server) handleItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	switch req.Delta {
	case 1:
		s.noContent(w, s.app.IncrementQuantity(r.Context(), id), "failed to update quantity")
	case -1:
		s.noContent(w, s.app.DecrementQuantity(r.Context(), id), "failed to update quantity")
	default:
		writeError(w, http.StatusBadRequest, "delta must be 1 or -1")
	}
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.app.DeleteItem(r.Context(), r.PathValue("id")), "failed to delete item")
}

func (s *Server) handleClearRecents(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.app.ClearRecents(r.Context()), "failed to clear recents")
}

func (s *Server) handleOpenOverlay(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.app.OpenOverlay(), "failed to open overlay")
}

func (s *Server) handleCloseOverlay(w http.ResponseWriter, r *http.Request) {
	s.app.CloseOverlay()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOverlayInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.app.SetOverlayInput(req.Value)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleOverlaySubmit(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.app.OverlayAdd(r.Context()), "failed to add item")
}

func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.app.ToggleRecent(req.Name)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelectionQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Delta int    `json:"delta"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.app.UpdateRecentQuantity(req.Name, req.Delta)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCommitSelection(w http.ResponseWriter, r *http.Request) {
	s.noContent(w, s.app.AddSelected(r.Context()), "failed to add items")
}

func (s *Server) noContent(w http.ResponseWriter, err error, fallback string) {
	if err != nil {
		s.writeAppError(w, err, fallback)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
