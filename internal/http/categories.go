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

const entityCategories = "categories"

type CategoryDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	Serial      int     `json:"serial"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type CategoryUpsertRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RemoveImage bool   `json:"removeImage"`
}

func (s *Server) categoryDTO(row models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		ImageURL:    s.assetURL(row.ImageAssetID),
		Serial:      row.Serial,
		Status:      string(row.Status),
		CreatedAt:   row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	key := listKey(entityCategories, params)
	s.respondCached(w, r, key, []string{cache.ListTag(entityCategories)}, func() (interface{}, error) {
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
		if err := s.DB.Get(&total, s.DB.Rebind(`SELECT COUNT(*) FROM categories`+where), args...); err != nil {
			return nil, err
		}
		rows := []models.Category{}
		query := `
SELECT id, name, description, image_asset_id, serial, status, created_at, updated_at
FROM categories` + where + `
ORDER BY serial ASC
LIMIT ? OFFSET ?`
		pageArgs := append(args, params.Limit, services.Offset(params.Page, params.Limit))
		if err := s.DB.Select(&rows, s.DB.Rebind(query), pageArgs...); err != nil {
			return nil, err
		}
		items := make([]CategoryDTO, 0, len(rows))
		for _, row := range rows {
			items = append(items, s.categoryDTO(row))
		}
		return ListResponse{Data: items, Pagination: services.NewPagination(params.Page, params.Limit, total)}, nil
	})
}

func (s *Server) GetCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")
	key := detailKey(entityCategories, categoryID)
	s.respondCached(w, r, key, []string{cache.DetailTag(entityCategories, categoryID)}, func() (interface{}, error) {
		row, err := s.fetchCategory(categoryID)
		if err != nil {
			return nil, err
		}
		return s.categoryDTO(row), nil
	})
}

func (s *Server) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryUpsertRequest
	form, err := decodePayload(r, &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	name, err := services.NormalizeRequired(req.Name, "Category name is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	taken, err := services.CategoryNameTaken(s.DB, name, "")
	if err != nil {
		s.respondError(w, err)
		return
	}
	if taken {
		WriteError(w, http.StatusBadRequest, "A category with this name already exists")
		return
	}
	imageID, err := s.saveUpload(form, "image", services.BucketCategories, maxImageUpload)
	if err != nil {
		s.respondError(w, err)
		return
	}
	serial, err := services.NextSerial(s.DB, "categories", "", "")
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	categoryID := uuid.NewString()
	_, err = s.DB.Exec(s.DB.Rebind(`
INSERT INTO categories (id, name, description, image_asset_id, serial, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?)
`), categoryID, name, req.Description, imageID, serial, models.StatusActive, now, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityCategories)
	WriteJSON(w, http.StatusCreated, s.categoryDTO(models.Category{
		ID: categoryID, Name: name, Description: req.Description,
		ImageAssetID: imageID, Serial: serial, Status: models.StatusActive,
		CreatedAt: now, UpdatedAt: now,
	}))
}

// UpdateCategory changes general fields only. Status moves through the
// dedicated status endpoint and serial through the order commit.
func (s *Server) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")
	existing, err := s.fetchCategory(categoryID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req CategoryUpsertRequest
	form, err := decodePayload(r, &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	name, err := services.NormalizeRequired(req.Name, "Category name is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	taken, err := services.CategoryNameTaken(s.DB, name, categoryID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if taken {
		WriteError(w, http.StatusBadRequest, "A category with this name already exists")
		return
	}
	// No new file means the stored image stays; removeImage clears it.
	imageID := existing.ImageAssetID
	uploaded, err := s.saveUpload(form, "image", services.BucketCategories, maxImageUpload)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if uploaded != nil {
		imageID = uploaded
	} else if req.RemoveImage {
		imageID = nil
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`
UPDATE categories SET name = ?, description = ?, image_asset_id = ?, updated_at = ? WHERE id = ?
`), name, req.Description, imageID, now, categoryID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityCategories, categoryID)
	existing.Name = name
	existing.Description = req.Description
	existing.ImageAssetID = imageID
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, s.categoryDTO(existing))
}

func (s *Server) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")
	if _, err := s.fetchCategory(categoryID); err != nil {
		s.respondError(w, err)
		return
	}
	var hasCourses bool
	_ = s.DB.Get(&hasCourses, s.DB.Rebind(`SELECT EXISTS(SELECT 1 FROM courses WHERE category_id = ?)`), categoryID)
	if hasCourses {
		WriteError(w, http.StatusBadRequest, "Cannot delete a category that still has courses")
		return
	}
	_, _ = s.DB.Exec(s.DB.Rebind(`DELETE FROM categories WHERE id = ?`), categoryID)
	s.invalidate(r, entityCategories, categoryID)
	w.WriteHeader(http.StatusNoContent)
}

type StatusRequest struct {
	Status string `json:"status"`
}

// SetCategoryStatus is idempotent: writing the current value succeeds and
// touches nothing else.
func (s *Server) SetCategoryStatus(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")
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
	existing, err := s.fetchCategory(categoryID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`UPDATE categories SET status = ?, updated_at = ? WHERE id = ?`), status, now, categoryID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityCategories, categoryID)
	existing.Status = status
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, s.categoryDTO(existing))
}

// ReorderCategories commits a full ordering in one transaction. The payload
// must cover exactly the current categories with sequential 1-based serials.
func (s *Server) ReorderCategories(w http.ResponseWriter, r *http.Request) {
	var items []services.OrderedItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := services.CommitOrder(s.DB, "categories", "", "", items); err != nil {
		s.respondError(w, err)
		return
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	s.invalidate(r, entityCategories, ids...)
	rows := []models.Category{}
	if err := s.DB.Select(&rows, s.DB.Rebind(`
SELECT id, name, description, image_asset_id, serial, status, created_at, updated_at
FROM categories ORDER BY serial ASC
`)); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	committed := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		committed = append(committed, s.categoryDTO(row))
	}
	WriteJSON(w, http.StatusOK, committed)
}

func (s *Server) fetchCategory(categoryID string) (models.Category, error) {
	row := models.Category{}
	if err := s.DB.Get(&row, s.DB.Rebind(`
SELECT id, name, description, image_asset_id, serial, status, created_at, updated_at
FROM categories WHERE id = ?
`), categoryID); err != nil {
		return row, services.ErrNotFound("Category not found")
	}
	return row, nil
}

func appendWhere(where, clause string) string {
	if where == "" {
		return " WHERE " + clause
	}
	return where + " AND " + clause
}
