package api

import (
	"net/http"

	"recipeshare/internal/auth"
	"recipeshare/internal/user"
)

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	u, err := s.users.Get(r.Context(), userID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	prefs, err := s.users.GetPreferences(r.Context(), userID)
	if err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var prefs user.Preferences
	if err := decode(r, &prefs); err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.users.UpdatePreferences(r.Context(), userID, prefs); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type linkTelegramRequest struct {
	// ChatID nil unlinks the account.
	ChatID *int64 `json:"chat_id"`
}

func (s *Server) handleLinkTelegram(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())

	var req linkTelegramRequest
	if err := decode(r, &req); err != nil {
		respondError(w, s.log, err)
		return
	}
	if err := s.users.LinkTelegram(r.Context(), userID, req.ChatID); err != nil {
		respondError(w, s.log, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
