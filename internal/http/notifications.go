package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"kanza-admin-go/internal/cache"
	"kanza-admin-go/internal/models"
	"kanza-admin-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const entityNotifications = "notifications"

type NotificationDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	ScheduledAt string `json:"scheduledAt"`
	Delivery    string `json:"delivery"`
	Read        bool   `json:"read"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type NotificationUpsertRequest struct {
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

type ReadRequest struct {
	Read bool `json:"read"`
}

func notificationDTO(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:          row.ID,
		Title:       row.Title,
		Body:        row.Body,
		ScheduledAt: row.ScheduledAt.UTC().Format(time.RFC3339),
		Delivery:    string(row.Delivery),
		Read:        row.IsRead,
		Status:      string(row.Status),
		CreatedAt:   row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	readFilter := r.URL.Query().Get("read")
	key := listKey(entityNotifications, params, "read="+readFilter)
	s.respondCached(w, r, key, []string{cache.ListTag(entityNotifications)}, func() (interface{}, error) {
		where := ""
		args := []interface{}{}
		if params.Status != "" {
			where = appendWhere(where, "status = ?")
			args = append(args, params.Status)
		}
		if params.Search != "" {
			where = appendWhere(where, `lower(title) LIKE lower(?) ESCAPE '\'`)
			args = append(args, services.LikeContains(params.Search))
		}
		if readFilter == "true" || readFilter == "false" {
			where = appendWhere(where, "is_read = ?")
			args = append(args, readFilter == "true")
		}
		var total int
		if err := s.DB.Get(&total, s.DB.Rebind(`SELECT COUNT(*) FROM notifications`+where), args...); err != nil {
			return nil, err
		}
		rows := []models.Notification{}
		query := `
SELECT id, title, body, scheduled_at, delivery, is_read, status, created_at, updated_at
FROM notifications` + where + `
ORDER BY scheduled_at DESC
LIMIT ? OFFSET ?`
		pageArgs := append(args, params.Limit, services.Offset(params.Page, params.Limit))
		if err := s.DB.Select(&rows, s.DB.Rebind(query), pageArgs...); err != nil {
			return nil, err
		}
		items := make([]NotificationDTO, 0, len(rows))
		for _, row := range rows {
			items = append(items, notificationDTO(row))
		}
		return ListResponse{Data: items, Pagination: services.NewPagination(params.Page, params.Limit, total)}, nil
	})
}

func (s *Server) GetNotification(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationId")
	key := detailKey(entityNotifications, notificationID)
	s.respondCached(w, r, key, []string{cache.DetailTag(entityNotifications, notificationID)}, func() (interface{}, error) {
		row, err := s.fetchNotification(notificationID)
		if err != nil {
			return nil, err
		}
		return notificationDTO(row), nil
	})
}

func (s *Server) CreateNotification(w http.ResponseWriter, r *http.Request) {
	var req NotificationUpsertRequest
	if _, err := decodePayload(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	title, err := services.NormalizeRequired(req.Title, "Notification title is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	body, err := services.NormalizeRequired(req.Body, "Notification body is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := services.ValidateSchedule(req.ScheduledAt, time.Now().UTC()); err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	notificationID := uuid.NewString()
	_, err = s.DB.Exec(s.DB.Rebind(`
INSERT INTO notifications (id, title, body, scheduled_at, delivery, is_read, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?)
`), notificationID, title, body, req.ScheduledAt.UTC(), models.DeliveryPending, false, models.StatusActive, now, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityNotifications)
	WriteJSON(w, http.StatusCreated, notificationDTO(models.Notification{
		ID: notificationID, Title: title, Body: body, ScheduledAt: req.ScheduledAt.UTC(),
		Delivery: models.DeliveryPending, Status: models.StatusActive, CreatedAt: now, UpdatedAt: now,
	}))
}

// UpdateNotification edits pending notifications only; a sent notification
// is history and stays as delivered.
func (s *Server) UpdateNotification(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationId")
	existing, err := s.fetchNotification(notificationID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if existing.Delivery == models.DeliverySent {
		WriteError(w, http.StatusBadRequest, "A sent notification cannot be edited")
		return
	}
	var req NotificationUpsertRequest
	if _, err := decodePayload(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	title, err := services.NormalizeRequired(req.Title, "Notification title is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	body, err := services.NormalizeRequired(req.Body, "Notification body is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := services.ValidateSchedule(req.ScheduledAt, time.Now().UTC()); err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`
UPDATE notifications SET title = ?, body = ?, scheduled_at = ?, updated_at = ? WHERE id = ?
`), title, body, req.ScheduledAt.UTC(), now, notificationID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityNotifications, notificationID)
	existing.Title = title
	existing.Body = body
	existing.ScheduledAt = req.ScheduledAt.UTC()
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, notificationDTO(existing))
}

func (s *Server) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationId")
	if _, err := s.fetchNotification(notificationID); err != nil {
		s.respondError(w, err)
		return
	}
	_, _ = s.DB.Exec(s.DB.Rebind(`DELETE FROM notifications WHERE id = ?`), notificationID)
	s.invalidate(r, entityNotifications, notificationID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SetNotificationStatus(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationId")
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
	existing, err := s.fetchNotification(notificationID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`UPDATE notifications SET status = ?, updated_at = ? WHERE id = ?`), status, now, notificationID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityNotifications, notificationID)
	existing.Status = status
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, notificationDTO(existing))
}

// SetNotificationRead flips the read flag. Idempotent: repeating the same
// value is a no-op.
func (s *Server) SetNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "notificationId")
	var req ReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	existing, err := s.fetchNotification(notificationID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`UPDATE notifications SET is_read = ?, updated_at = ? WHERE id = ?`), req.Read, now, notificationID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityNotifications, notificationID)
	existing.IsRead = req.Read
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, notificationDTO(existing))
}

func (s *Server) fetchNotification(notificationID string) (models.Notification, error) {
	row := models.Notification{}
	if err := s.DB.Get(&row, s.DB.Rebind(`
SELECT id, title, body, scheduled_at, delivery, is_read, status, created_at, updated_at
FROM notifications WHERE id = ?
`), notificationID); err != nil {
		return row, services.ErrNotFound("Notification not found")
	}
	return row, nil
}
