package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"kanza-admin-go/internal/models"

	"github.com/google/uuid"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type SessionResponse struct {
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresAt    int64   `json:"expiresAt"`
	User         UserDTO `json:"user"`
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user := models.User{}
	if err := s.DB.Get(&user, s.DB.Rebind(`
SELECT id, email, password_hash, first_name, last_name, role, status, created_at, updated_at
FROM users WHERE lower(email) = ?
`), email); err != nil {
		WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if !s.Tokens.VerifyPassword(req.Password, user.PasswordHash) {
		WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if user.Status != models.StatusActive {
		WriteError(w, http.StatusForbidden, "Account is deactivated")
		return
	}
	access, expiresAt, err := s.Tokens.CreateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	refresh, err := s.Tokens.CreateRefreshToken(user.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	_, err = s.DB.Exec(s.DB.Rebind(`
INSERT INTO refresh_tokens (id, user_id, token, expires_at) VALUES (?,?,?,?)
`), uuid.NewString(), user.ID, refresh, time.Now().UTC().Add(s.Tokens.RefreshTTL))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, SessionResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		User:         userDTO(user),
	})
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	token, claims, err := s.Tokens.ParseToken(req.RefreshToken)
	if err != nil || !token.Valid || claims["typ"] != "refresh" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	var active bool
	_ = s.DB.Get(&active, s.DB.Rebind(`
SELECT EXISTS(SELECT 1 FROM refresh_tokens WHERE token = ? AND revoked_at IS NULL AND expires_at > ?)
`), req.RefreshToken, time.Now().UTC())
	if !active {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	userID, _ := claims["sub"].(string)
	user := models.User{}
	if err := s.DB.Get(&user, s.DB.Rebind(`
SELECT id, email, password_hash, first_name, last_name, role, status, created_at, updated_at
FROM users WHERE id = ?
`), userID); err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if user.Status != models.StatusActive {
		WriteError(w, http.StatusForbidden, "Account is deactivated")
		return
	}
	access, expiresAt, err := s.Tokens.CreateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, SessionResponse{
		AccessToken:  access,
		RefreshToken: req.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         userDTO(user),
	})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	_, _ = s.DB.Exec(s.DB.Rebind(`
UPDATE refresh_tokens SET revoked_at = ? WHERE token = ? AND revoked_at IS NULL
`), time.Now().UTC(), req.RefreshToken)
	w.WriteHeader(http.StatusNoContent)
}
