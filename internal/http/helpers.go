package httpapi

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"kanza-admin-go/internal/cache"
	"kanza-admin-go/internal/models"
	"kanza-admin-go/internal/services"
)

const (
	maxImageUpload = 10 << 20
	maxVideoUpload = 512 << 20
)

type listParams struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// parseListParams reads the shared list query parameters. status=all (or an
// unknown value) means no status predicate; absent filters stay absent.
func parseListParams(r *http.Request) listParams {
	q := r.URL.Query()
	page, limit := services.ParsePageParams(q.Get("page"), q.Get("limit"))
	status := strings.ToLower(strings.TrimSpace(q.Get("status")))
	if !models.Status(status).Valid() {
		status = ""
	}
	return listParams{
		Page:   page,
		Limit:  limit,
		Status: status,
		Search: services.CleanSearchTerm(q.Get("search")),
	}
}

// listKey builds the canonical cache key for one page of a filtered list.
func listKey(entity string, p listParams, extra ...string) string {
	key := fmt.Sprintf("%s?page=%d&limit=%d&status=%s&search=%s", entity, p.Page, p.Limit, p.Status, p.Search)
	for _, part := range extra {
		key += "&" + part
	}
	return key
}

func detailKey(entity, id string) string {
	return entity + "/" + id
}

// respondCached serves the payload from the tag store when present,
// otherwise builds it, stores it under the tags, and writes it.
func (s *Server) respondCached(w http.ResponseWriter, r *http.Request, key string, tags []string, build func() (interface{}, error)) {
	if payload, ok := s.Cache.Get(r.Context(), key); ok {
		WriteJSONRaw(w, http.StatusOK, payload)
		return
	}
	value, err := build()
	if err != nil {
		s.respondError(w, err)
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.Cache.Set(r.Context(), key, payload, tags...)
	WriteJSONRaw(w, http.StatusOK, payload)
}

// invalidate drops an entity's cached list pages and, when ids are known,
// the cached details. Runs before the mutation response is written so a
// follow-up read observes the write.
func (s *Server) invalidate(r *http.Request, entity string, ids ...string) {
	tags := []string{cache.ListTag(entity)}
	for _, id := range ids {
		tags = append(tags, cache.DetailTag(entity, id))
	}
	s.Cache.Invalidate(r.Context(), tags...)
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	if mapServiceError(w, err) {
		return
	}
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}

func mapServiceError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	if serr, ok := err.(services.ServiceError); ok {
		WriteError(w, serr.Status, serr.Message)
		return true
	}
	return false
}

// decodePayload fills dst from the request body. Plain JSON bodies decode
// directly; multipart bodies carry the structured fields as a JSON document
// under the data part, with files under their own parts. Returns the parsed
// form for multipart requests so callers can pick up file parts.
func decodePayload(r *http.Request, dst interface{}) (*multipart.Form, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, services.ErrBadRequest("Invalid multipart payload")
		}
		raw := r.FormValue("data")
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), dst); err != nil {
				return nil, services.ErrBadRequest("Invalid payload")
			}
		}
		return r.MultipartForm, nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return nil, services.ErrBadRequest("Invalid payload")
	}
	return nil, nil
}

// saveUpload stores the named file part when present. A nil result with nil
// error means no file was sent and the caller keeps the existing reference.
func (s *Server) saveUpload(form *multipart.Form, field, bucket string, maxBytes int64) (*string, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	header := files[0]
	if header.Size > maxBytes {
		return nil, services.ErrBadRequest("Uploaded file is too large")
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	assetID, err := services.SaveMediaAsset(s.DB, s.Config.MediaStoragePath, bucket, header.Header.Get("Content-Type"), header.Filename, file)
	if err != nil {
		return nil, err
	}
	return &assetID, nil
}

func (s *Server) assetURL(assetID *string) *string {
	if assetID == nil || *assetID == "" {
		return nil
	}
	url := services.BuildAssetURL(s.Config.PublicBaseURL, *assetID)
	return &url
}
