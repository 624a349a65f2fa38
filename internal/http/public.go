package httpapi

import (
	"net/http"

	"kanza-admin-go/internal/cache"
	"kanza-admin-go/internal/models"
	"kanza-admin-go/internal/services"

	"github.com/go-chi/chi/v5"
)

// PublicCategories serves the storefront category list: active rows only,
// in display order, no pagination.
func (s *Server) PublicCategories(w http.ResponseWriter, r *http.Request) {
	key := "public:categories"
	s.respondCached(w, r, key, []string{cache.ListTag(entityCategories)}, func() (interface{}, error) {
		rows := []models.Category{}
		err := s.DB.Select(&rows, s.DB.Rebind(`
SELECT id, name, description, image_asset_id, serial, status, created_at, updated_at
FROM categories WHERE status = ?
ORDER BY serial ASC
`), models.StatusActive)
		if err != nil {
			return nil, err
		}
		items := make([]CategoryDTO, 0, len(rows))
		for _, row := range rows {
			items = append(items, s.categoryDTO(row))
		}
		return map[string]interface{}{"data": items}, nil
	})
}

func (s *Server) PublicPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	key := "public:pages:" + slug
	s.respondCached(w, r, key, []string{cache.ListTag(entityPages)}, func() (interface{}, error) {
		row := models.Page{}
		err := s.DB.Get(&row, s.DB.Rebind(`
SELECT id, slug, title, content, status, created_at, updated_at
FROM pages WHERE slug = ? AND status = ?
`), slug, models.StatusActive)
		if err != nil {
			return nil, services.ErrNotFound("Page not found")
		}
		return pageDTO(row), nil
	})
}
