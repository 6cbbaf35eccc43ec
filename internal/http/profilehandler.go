package httphandler

import (
	"errors"
	"net/http"

	"quizduel/internal/auth"

	"github.com/go-chi/chi/v5"
)

// Profile returns a user's public profile
func (s *Server) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.GetByUsername(chi.URLParam(r, "username"))
	if errors.Is(err, auth.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.log.WithError(err).Error("profile lookup failed")
		writeError(w, http.StatusInternalServerError, "could not load profile")
		return
	}
	writeJSON(w, http.StatusOK, u.Profile(), "")
}
