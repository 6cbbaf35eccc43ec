package httphandler

import (
	"errors"
	"net/http"
	"time"

	"quizduel/internal/auth"

	"github.com/sirupsen/logrus"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      auth.Profile `json:"user"`
}

// signupMessage maps store errors to user facing text
func signupMessage(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		return http.StatusConflict, "Username is already taken"
	case errors.Is(err, auth.ErrInvalidUsername):
		return http.StatusBadRequest, "Username must be at least 3 characters long"
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, "Password must be at least 6 characters long"
	}
	return http.StatusInternalServerError, "Signup failed, please try again"
}

// Signup creates an account and returns a session token for it
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := s.users.Create(req.Username, req.Password)
	if err != nil {
		status, msg := signupMessage(err)
		if status == http.StatusInternalServerError {
			s.log.WithError(err).Error("signup failed")
		}
		writeError(w, status, msg)
		return
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user signed up")
	s.startSession(w, http.StatusCreated, u)
}

// Login verifies credentials and returns a session token
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Username or password is incorrect")
		return
	}
	seen, err := s.users.RecordLogin(u.ID)
	if err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("failed to record login")
		writeError(w, http.StatusInternalServerError, "could not start session")
		return
	}
	s.startSession(w, http.StatusOK, seen)
}

func (s *Server) startSession(w http.ResponseWriter, status int, u *auth.User) {
	tok, exp, err := s.tokens.Issue(u)
	if err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("failed to issue token")
		writeError(w, http.StatusInternalServerError, "could not start session")
		return
	}
	writeJSON(w, status, session{Token: tok, ExpiresAt: exp, User: u.Profile()}, "")
}
