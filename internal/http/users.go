package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"kanza-admin-go/internal/cache"
	"kanza-admin-go/internal/models"
	"kanza-admin-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const entityUsers = "users"

type UserDTO struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      string  `json:"role"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type UserCreateRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      string  `json:"role"`
}

type UserUpdateRequest struct {
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Role      string  `json:"role"`
}

func userDTO(row models.User) UserDTO {
	return UserDTO{
		ID:        row.ID,
		Email:     row.Email,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Role:      string(row.Role),
		Status:    string(row.Status),
		CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func validRole(role string) bool {
	return role == string(models.RoleAdmin) || role == string(models.RoleEditor)
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	roleFilter := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("role")))
	if !validRole(roleFilter) {
		roleFilter = ""
	}
	key := listKey(entityUsers, params, "role="+roleFilter)
	s.respondCached(w, r, key, []string{cache.ListTag(entityUsers)}, func() (interface{}, error) {
		where := ""
		args := []interface{}{}
		if params.Status != "" {
			where = appendWhere(where, "status = ?")
			args = append(args, params.Status)
		}
		if params.Search != "" {
			where = appendWhere(where, `(lower(email) LIKE lower(?) ESCAPE '\' OR lower(coalesce(first_name, '')) LIKE lower(?) ESCAPE '\' OR lower(coalesce(last_name, '')) LIKE lower(?) ESCAPE '\')`)
			term := services.LikeContains(params.Search)
			args = append(args, term, term, term)
		}
		if roleFilter != "" {
			where = appendWhere(where, "role = ?")
			args = append(args, roleFilter)
		}
		var total int
		if err := s.DB.Get(&total, s.DB.Rebind(`SELECT COUNT(*) FROM users`+where), args...); err != nil {
			return nil, err
		}
		rows := []models.User{}
		query := `
SELECT id, email, password_hash, first_name, last_name, role, status, created_at, updated_at
FROM users` + where + `
ORDER BY created_at DESC
LIMIT ? OFFSET ?`
		pageArgs := append(args, params.Limit, services.Offset(params.Page, params.Limit))
		if err := s.DB.Select(&rows, s.DB.Rebind(query), pageArgs...); err != nil {
			return nil, err
		}
		items := make([]UserDTO, 0, len(rows))
		for _, row := range rows {
			items = append(items, userDTO(row))
		}
		return ListResponse{Data: items, Pagination: services.NewPagination(params.Page, params.Limit, total)}, nil
	})
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	key := detailKey(entityUsers, userID)
	s.respondCached(w, r, key, []string{cache.DetailTag(entityUsers, userID)}, func() (interface{}, error) {
		row, err := s.fetchUser(userID)
		if err != nil {
			return nil, err
		}
		return userDTO(row), nil
	})
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserCreateRequest
	if _, err := decodePayload(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !services.ValidEmail(email) {
		WriteError(w, http.StatusBadRequest, "A valid email address is required")
		return
	}
	if len(req.Password) < 8 {
		WriteError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if !validRole(role) {
		WriteError(w, http.StatusBadRequest, "Role must be ADMIN or EDITOR")
		return
	}
	var taken int
	if err := s.DB.Get(&taken, s.DB.Rebind(`SELECT COUNT(*) FROM users WHERE lower(email) = ?`), email); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if taken > 0 {
		WriteError(w, http.StatusBadRequest, "A user with this email already exists")
		return
	}
	hash, err := s.Tokens.HashPassword(req.Password)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	now := time.Now().UTC()
	userID := uuid.NewString()
	_, err = s.DB.Exec(s.DB.Rebind(`
INSERT INTO users (id, email, password_hash, first_name, last_name, role, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?)
`), userID, email, hash, req.FirstName, req.LastName, role, models.StatusActive, now, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityUsers)
	WriteJSON(w, http.StatusCreated, userDTO(models.User{
		ID: userID, Email: email, FirstName: req.FirstName, LastName: req.LastName,
		Role: models.Role(role), Status: models.StatusActive, CreatedAt: now, UpdatedAt: now,
	}))
}

// UpdateUser never touches the password or status; those have their own flows.
func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	existing, err := s.fetchUser(userID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req UserUpdateRequest
	if _, err := decodePayload(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !services.ValidEmail(email) {
		WriteError(w, http.StatusBadRequest, "A valid email address is required")
		return
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if !validRole(role) {
		WriteError(w, http.StatusBadRequest, "Role must be ADMIN or EDITOR")
		return
	}
	if email != strings.ToLower(existing.Email) {
		var taken int
		if err := s.DB.Get(&taken, s.DB.Rebind(`SELECT COUNT(*) FROM users WHERE lower(email) = ? AND id <> ?`), email, userID); err != nil {
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if taken > 0 {
			WriteError(w, http.StatusBadRequest, "A user with this email already exists")
			return
		}
	}
	if userID == CurrentUserID(r) && role != string(models.RoleAdmin) && existing.Role == models.RoleAdmin {
		WriteError(w, http.StatusBadRequest, "You cannot remove your own admin role")
		return
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`
UPDATE users SET email = ?, first_name = ?, last_name = ?, role = ?, updated_at = ? WHERE id = ?
`), email, req.FirstName, req.LastName, role, now, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityUsers, userID)
	existing.Email = email
	existing.FirstName = req.FirstName
	existing.LastName = req.LastName
	existing.Role = models.Role(role)
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, userDTO(existing))
}

func (s *Server) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == CurrentUserID(r) {
		WriteError(w, http.StatusBadRequest, "You cannot change your own status")
		return
	}
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	status := models.Status(req.Status)
	if !status.Valid() {
		WriteError(w, http.StatusBadRequest, "Invalid status value")
		return
	}
	existing, err := s.fetchUser(userID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`), status, now, userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if status == models.StatusInactive {
		// an inactive user must not keep live sessions
		_, _ = s.DB.Exec(s.DB.Rebind(`UPDATE refresh_tokens SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`), now, userID)
	}
	s.invalidate(r, entityUsers, userID)
	existing.Status = status
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, userDTO(existing))
}

func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == CurrentUserID(r) {
		WriteError(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}
	if _, err := s.fetchUser(userID); err != nil {
		s.respondError(w, err)
		return
	}
	_, _ = s.DB.Exec(s.DB.Rebind(`DELETE FROM refresh_tokens WHERE user_id = ?`), userID)
	_, _ = s.DB.Exec(s.DB.Rebind(`DELETE FROM users WHERE id = ?`), userID)
	s.invalidate(r, entityUsers, userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fetchUser(userID string) (models.User, error) {
	row := models.User{}
	if err := s.DB.Get(&row, s.DB.Rebind(`
SELECT id, email, password_hash, first_name, last_name, role, status, created_at, updated_at
FROM users WHERE id = ?
`), userID); err != nil {
		return row, services.ErrNotFound("User not found")
	}
	return row, nil
}
