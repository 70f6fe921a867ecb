package web

import (
	"net/http"

	"github.com/vbonduro/listsync/internal/domain"
)

type nameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.State())
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var route domain.Route
	if !decodeJSON(w, r, &route) {
		return
	}

	switch route.Name {
	case domain.RouteLists:
		s.app.GoToLists(r.Context())
	case domain.RouteSettings:
		s.app.GoToSettings(r.Context())
	case domain.RouteList:
		if err := s.app.OpenList(r.Context(), route.ListID); err != nil {
			s.writeAppError(w, err, "failed to open list")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "unknown route")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShowCompleted(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Show bool `json:"show"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s.app.SetShowCompleted(req.Show)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	list, err := s.app.CreateList(r.Context(), req.Name)
	if err != nil {
		s.writeAppError(w, err, "failed to create list")
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (s *Server) handleRenameList(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.RenameList(r.Context(), r.PathValue("id"), req.Name); err != nil {
		s.writeAppError(w, err, "failed to rename list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteList(r.Context(), r.PathValue("id")); err != nil {
		s.writeAppError(w, err, "Failed to delete list. Please try again.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLeaveList(w http.ResponseWriter, r *http.Request) {
	if err := s.app.LeaveList(r.Context(), r.PathValue("id")); err != nil {
		s.writeAppError(w, err, "Failed to leave list. Please try again.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJoinList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShareCode string `json:"shareCode"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.JoinList(r.Context(), req.ShareCode); err != nil {
		s.writeAppError(w, err, "Failed to join list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
