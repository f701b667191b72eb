package api

import (
	"net/http"
	"strings"

	"recipeshare/internal/apperr"
	"recipeshare/internal/user"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerResponse struct {
	User *user.User `json:"user"`
	// VerificationLink is returned so the operator can forward it; the
	// service also logs it.
	VerificationLink string `json:"verification_link"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}

	u, link, err := s.users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, registerResponse{User: u, VerificationLink: link})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt string     `json:"expires_at"`
	User      *user.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}

	sess, u, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		User:      u,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := s.auth.Logout(r.Context(), token); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, s.log, apperr.InvalidInput("token query parameter is required"))
		return
	}
	if err := s.users.VerifyEmail(r.Context(), token); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}
