package web

import (
	"errors"
	"net/http"

	"github.com/vbonduro/listsync/internal/auth"
	"github.com/vbonduro/listsync/internal/coordinator"
	"github.com/vbonduro/listsync/internal/notify"
)

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if s.verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "sign-in is not configured")
		return
	}
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	userID, err := s.verifier.Verify(req.Token)
	if err != nil {
		s.logger.Info("rejected session token", "error", err)
		msg := "invalid session token"
		if errors.Is(err, auth.ErrExpiredToken) {
			msg = "session token has expired"
		}
		writeError(w, http.StatusUnauthorized, msg)
		return
	}

	s.sessions.SetIdentity(r.Context(), coordinator.SignedIn(userID))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.sessions.SetIdentity(r.Context(), coordinator.SignedOut())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	var pending []notify.Notification
	if s.notifications != nil {
		pending = s.notifications.Drain()
	}
	if pending == nil {
		pending = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": pending})
}
