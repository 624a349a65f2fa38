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

const entityPages = "pages"

type PageDTO struct {
	ID        string           `json:"id"`
	Slug      string           `json:"slug"`
	Title     string           `json:"title"`
	Content   []services.Block `json:"content"`
	Status    string           `json:"status"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
}

type PageUpsertRequest struct {
	Title   string          `json:"title"`
	Content json.RawMessage `json:"content"`
}

func pageDTO(row models.Page) PageDTO {
	blocks := []services.Block{}
	if len(row.Content) > 0 {
		_ = json.Unmarshal(row.Content, &blocks)
	}
	return PageDTO{
		ID:        row.ID,
		Slug:      row.Slug,
		Title:     row.Title,
		Content:   blocks,
		Status:    string(row.Status),
		CreatedAt: row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) ListPages(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	key := listKey(entityPages, params)
	s.respondCached(w, r, key, []string{cache.ListTag(entityPages)}, func() (interface{}, error) {
		where := ""
		args := []interface{}{}
		if params.Status != "" {
			where = appendWhere(where, "status = ?")
			args = append(args, params.Status)
		}
		if params.Search != "" {
			where = appendWhere(where, `(lower(title) LIKE lower(?) ESCAPE '\' OR lower(slug) LIKE lower(?) ESCAPE '\')`)
			term := services.LikeContains(params.Search)
			args = append(args, term, term)
		}
		var total int
		if err := s.DB.Get(&total, s.DB.Rebind(`SELECT COUNT(*) FROM pages`+where), args...); err != nil {
			return nil, err
		}
		rows := []models.Page{}
		query := `
SELECT id, slug, title, content, status, created_at, updated_at
FROM pages` + where + `
ORDER BY title ASC
LIMIT ? OFFSET ?`
		pageArgs := append(args, params.Limit, services.Offset(params.Page, params.Limit))
		if err := s.DB.Select(&rows, s.DB.Rebind(query), pageArgs...); err != nil {
			return nil, err
		}
		items := make([]PageDTO, 0, len(rows))
		for _, row := range rows {
			items = append(items, pageDTO(row))
		}
		return ListResponse{Data: items, Pagination: services.NewPagination(params.Page, params.Limit, total)}, nil
	})
}

func (s *Server) GetPage(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageId")
	key := detailKey(entityPages, pageID)
	s.respondCached(w, r, key, []string{cache.DetailTag(entityPages, pageID)}, func() (interface{}, error) {
		row, err := s.fetchPage(pageID)
		if err != nil {
			return nil, err
		}
		return pageDTO(row), nil
	})
}

func (s *Server) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req PageUpsertRequest
	if _, err := decodePayload(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	title, err := services.NormalizeRequired(req.Title, "Page title is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	blocks, err := services.ValidateBlocks(req.Content)
	if err != nil {
		s.respondError(w, err)
		return
	}
	slug, err := services.ResolvePageSlug(s.DB, title)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	content, _ := json.Marshal(blocks)
	now := time.Now().UTC()
	pageID := uuid.NewString()
	_, err = s.DB.Exec(s.DB.Rebind(`
INSERT INTO pages (id, slug, title, content, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?)
`), pageID, slug, title, content, models.StatusActive, now, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityPages)
	WriteJSON(w, http.StatusCreated, pageDTO(models.Page{
		ID: pageID, Slug: slug, Title: title, Content: content,
		Status: models.StatusActive, CreatedAt: now, UpdatedAt: now,
	}))
}

// UpdatePage keeps the slug stable even when the title changes; published
// links must not break.
func (s *Server) UpdatePage(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageId")
	existing, err := s.fetchPage(pageID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req PageUpsertRequest
	if _, err := decodePayload(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	title, err := services.NormalizeRequired(req.Title, "Page title is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	blocks, err := services.ValidateBlocks(req.Content)
	if err != nil {
		s.respondError(w, err)
		return
	}
	content, _ := json.Marshal(blocks)
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`
UPDATE pages SET title = ?, content = ?, updated_at = ? WHERE id = ?
`), title, content, now, pageID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityPages, pageID)
	existing.Title = title
	existing.Content = content
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, pageDTO(existing))
}

func (s *Server) DeletePage(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageId")
	if _, err := s.fetchPage(pageID); err != nil {
		s.respondError(w, err)
		return
	}
	_, _ = s.DB.Exec(s.DB.Rebind(`DELETE FROM pages WHERE id = ?`), pageID)
	s.invalidate(r, entityPages, pageID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SetPageStatus(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageId")
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
	existing, err := s.fetchPage(pageID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`UPDATE pages SET status = ?, updated_at = ? WHERE id = ?`), status, now, pageID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityPages, pageID)
	existing.Status = status
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, pageDTO(existing))
}

func (s *Server) fetchPage(pageID string) (models.Page, error) {
	row := models.Page{}
	if err := s.DB.Get(&row, s.DB.Rebind(`
SELECT id, slug, title, content, status, created_at, updated_at
FROM pages WHERE id = ?
`), pageID); err != nil {
		return row, services.ErrNotFound("Page not found")
	}
	return row, nil
}
