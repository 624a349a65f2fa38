package httpapi

import (
	"net/http"
	"os"
	"path/filepath"

	"kanza-admin-go/internal/models"

	"github.com/go-chi/chi/v5"
)

// MediaContent streams a stored asset. No auth: URLs embedded in public
// responses must resolve for the consumer app.
func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	assetID := chi.URLParam(r, "assetId")
	asset := models.MediaAsset{}
	err := s.DB.Get(&asset, s.DB.Rebind(`
SELECT id, bucket, storage_key, filename, content_type, size_bytes, sha256, created_at
FROM media_assets WHERE id = ?
`), assetID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Asset not found")
		return
	}
	path := filepath.Join(s.Config.MediaStoragePath, asset.Bucket, asset.StorageKey)
	f, err := os.Open(path)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Asset not found")
		return
	}
	defer f.Close()
	if asset.ContentType != "" {
		w.Header().Set("Content-Type", asset.ContentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	name := asset.ID
	if asset.Filename != nil {
		name = *asset.Filename
	}
	http.ServeContent(w, r, name, asset.CreatedAt, f)
}
