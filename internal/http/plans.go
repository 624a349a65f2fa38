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

const entityPlans = "plans"

type PlanDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	DurationDays int      `json:"durationDays"`
	Features     []string `json:"features"`
	Status       string   `json:"status"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
}

type PlanUpsertRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	DurationDays int      `json:"durationDays"`
	Features     []string `json:"features"`
}

func planDTO(row models.SubscriptionPlan) PlanDTO {
	features := []string{}
	_ = json.Unmarshal(row.Features, &features)
	return PlanDTO{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		Price:        row.Price,
		DurationDays: row.DurationDays,
		Features:     features,
		Status:       string(row.Status),
		CreatedAt:    row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func validatePlan(req PlanUpsertRequest) error {
	if req.Price < 0 {
		return services.ErrBadRequest("Price cannot be negative")
	}
	if req.DurationDays <= 0 {
		return services.ErrBadRequest("Duration must be at least one day")
	}
	return nil
}

func (s *Server) ListPlans(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	key := listKey(entityPlans, params)
	s.respondCached(w, r, key, []string{cache.ListTag(entityPlans)}, func() (interface{}, error) {
		where := ""
		args := []interface{}{}
		if params.Status != "" {
			where = appendWhere(where, "status = ?")
			args = append(args, params.Status)
		}
		if params.Search != "" {
			where = appendWhere(where, `lower(name) LIKE lower(?) ESCAPE '\'`)
			args = append(args, services.LikeContains(params.Search))
		}
		var total int
		if err := s.DB.Get(&total, s.DB.Rebind(`SELECT COUNT(*) FROM subscription_plans`+where), args...); err != nil {
			return nil, err
		}
		rows := []models.SubscriptionPlan{}
		query := `
SELECT id, name, description, price, duration_days, features, status, created_at, updated_at
FROM subscription_plans` + where + `
ORDER BY price ASC
LIMIT ? OFFSET ?`
		pageArgs := append(args, params.Limit, services.Offset(params.Page, params.Limit))
		if err := s.DB.Select(&rows, s.DB.Rebind(query), pageArgs...); err != nil {
			return nil, err
		}
		items := make([]PlanDTO, 0, len(rows))
		for _, row := range rows {
			items = append(items, planDTO(row))
		}
		return ListResponse{Data: items, Pagination: services.NewPagination(params.Page, params.Limit, total)}, nil
	})
}

func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planId")
	key := detailKey(entityPlans, planID)
	s.respondCached(w, r, key, []string{cache.DetailTag(entityPlans, planID)}, func() (interface{}, error) {
		row, err := s.fetchPlan(planID)
		if err != nil {
			return nil, err
		}
		return planDTO(row), nil
	})
}

func (s *Server) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanUpsertRequest
	if _, err := decodePayload(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	name, err := services.NormalizeRequired(req.Name, "Plan name is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := validatePlan(req); err != nil {
		s.respondError(w, err)
		return
	}
	features := req.Features
	if features == nil {
		features = []string{}
	}
	featuresJSON, _ := json.Marshal(features)
	now := time.Now().UTC()
	planID := uuid.NewString()
	_, err = s.DB.Exec(s.DB.Rebind(`
INSERT INTO subscription_plans (id, name, description, price, duration_days, features, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?)
`), planID, name, req.Description, req.Price, req.DurationDays, featuresJSON, models.StatusActive, now, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityPlans)
	WriteJSON(w, http.StatusCreated, planDTO(models.SubscriptionPlan{
		ID: planID, Name: name, Description: req.Description, Price: req.Price,
		DurationDays: req.DurationDays, Features: featuresJSON, Status: models.StatusActive,
		CreatedAt: now, UpdatedAt: now,
	}))
}

func (s *Server) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planId")
	existing, err := s.fetchPlan(planID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req PlanUpsertRequest
	if _, err := decodePayload(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	name, err := services.NormalizeRequired(req.Name, "Plan name is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := validatePlan(req); err != nil {
		s.respondError(w, err)
		return
	}
	features := req.Features
	if features == nil {
		features = []string{}
	}
	featuresJSON, _ := json.Marshal(features)
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`
UPDATE subscription_plans
SET name = ?, description = ?, price = ?, duration_days = ?, features = ?, updated_at = ?
WHERE id = ?
`), name, req.Description, req.Price, req.DurationDays, featuresJSON, now, planID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityPlans, planID)
	existing.Name = name
	existing.Description = req.Description
	existing.Price = req.Price
	existing.DurationDays = req.DurationDays
	existing.Features = featuresJSON
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, planDTO(existing))
}

func (s *Server) DeletePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planId")
	if _, err := s.fetchPlan(planID); err != nil {
		s.respondError(w, err)
		return
	}
	_, _ = s.DB.Exec(s.DB.Rebind(`DELETE FROM subscription_plans WHERE id = ?`), planID)
	s.invalidate(r, entityPlans, planID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SetPlanStatus(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planId")
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
	existing, err := s.fetchPlan(planID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`UPDATE subscription_plans SET status = ?, updated_at = ? WHERE id = ?`), status, now, planID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityPlans, planID)
	existing.Status = status
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, planDTO(existing))
}

func (s *Server) fetchPlan(planID string) (models.SubscriptionPlan, error) {
	row := models.SubscriptionPlan{}
	if err := s.DB.Get(&row, s.DB.Rebind(`
SELECT id, name, description, price, duration_days, features, status, created_at, updated_at
FROM subscription_plans WHERE id = ?
`), planID); err != nil {
		return row, services.ErrNotFound("Plan not found")
	}
	return row, nil
}
