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

const entityCourses = "courses"

type CourseDTO struct {
	ID          string  `json:"id"`
	CategoryID  string  `json:"categoryId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	Status      string  `json:"status"`
	VideoCount  int     `json:"videoCount"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type CourseUpsertRequest struct {
	CategoryID  string `json:"categoryId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	RemoveImage bool   `json:"removeImage"`
}

func (s *Server) courseDTO(row models.Course, videoCount int) CourseDTO {
	return CourseDTO{
		ID:          row.ID,
		CategoryID:  row.CategoryID,
		Title:       row.Title,
		Description: row.Description,
		ImageURL:    s.assetURL(row.ImageAssetID),
		Status:      string(row.Status),
		VideoCount:  videoCount,
		CreatedAt:   row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) ListCourses(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	categoryID := r.URL.Query().Get("categoryId")
	key := listKey(entityCourses, params, "categoryId="+categoryID)
	s.respondCached(w, r, key, []string{cache.ListTag(entityCourses)}, func() (interface{}, error) {
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
		if categoryID != "" {
			where = appendWhere(where, "category_id = ?")
			args = append(args, categoryID)
		}
		var total int
		if err := s.DB.Get(&total, s.DB.Rebind(`SELECT COUNT(*) FROM courses`+where), args...); err != nil {
			return nil, err
		}
		rows := []models.Course{}
		query := `
SELECT id, category_id, title, description, image_asset_id, status, created_at, updated_at
FROM courses` + where + `
ORDER BY created_at DESC
LIMIT ? OFFSET ?`
		pageArgs := append(args, params.Limit, services.Offset(params.Page, params.Limit))
		if err := s.DB.Select(&rows, s.DB.Rebind(query), pageArgs...); err != nil {
			return nil, err
		}
		items := make([]CourseDTO, 0, len(rows))
		for _, row := range rows {
			items = append(items, s.courseDTO(row, s.videoCount(row.ID)))
		}
		return ListResponse{Data: items, Pagination: services.NewPagination(params.Page, params.Limit, total)}, nil
	})
}

func (s *Server) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	key := detailKey(entityCourses, courseID)
	s.respondCached(w, r, key, []string{cache.DetailTag(entityCourses, courseID)}, func() (interface{}, error) {
		row, err := s.fetchCourse(courseID)
		if err != nil {
			return nil, err
		}
		return s.courseDTO(row, s.videoCount(courseID)), nil
	})
}

func (s *Server) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CourseUpsertRequest
	form, err := decodePayload(r, &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	title, err := services.NormalizeRequired(req.Title, "Course title is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	if _, err := s.fetchCategory(req.CategoryID); err != nil {
		WriteError(w, http.StatusBadRequest, "Selected category does not exist")
		return
	}
	imageID, err := s.saveUpload(form, "image", services.BucketCourses, maxImageUpload)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	courseID := uuid.NewString()
	_, err = s.DB.Exec(s.DB.Rebind(`
INSERT INTO courses (id, category_id, title, description, image_asset_id, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?)
`), courseID, req.CategoryID, title, req.Description, imageID, models.StatusActive, now, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityCourses)
	WriteJSON(w, http.StatusCreated, s.courseDTO(models.Course{
		ID: courseID, CategoryID: req.CategoryID, Title: title, Description: req.Description,
		ImageAssetID: imageID, Status: models.StatusActive, CreatedAt: now, UpdatedAt: now,
	}, 0))
}

func (s *Server) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	existing, err := s.fetchCourse(courseID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req CourseUpsertRequest
	form, err := decodePayload(r, &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	title, err := services.NormalizeRequired(req.Title, "Course title is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	if _, err := s.fetchCategory(req.CategoryID); err != nil {
		WriteError(w, http.StatusBadRequest, "Selected category does not exist")
		return
	}
	imageID := existing.ImageAssetID
	uploaded, err := s.saveUpload(form, "image", services.BucketCourses, maxImageUpload)
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
UPDATE courses SET category_id = ?, title = ?, description = ?, image_asset_id = ?, updated_at = ? WHERE id = ?
`), req.CategoryID, title, req.Description, imageID, now, courseID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityCourses, courseID)
	existing.CategoryID = req.CategoryID
	existing.Title = title
	existing.Description = req.Description
	existing.ImageAssetID = imageID
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, s.courseDTO(existing, s.videoCount(courseID)))
}

// DeleteCourse removes the course together with its videos.
func (s *Server) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	if _, err := s.fetchCourse(courseID); err != nil {
		s.respondError(w, err)
		return
	}
	tx, err := s.DB.Beginx()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer tx.Rollback()
	if _, err := tx.Exec(s.DB.Rebind(`DELETE FROM course_videos WHERE course_id = ?`), courseID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if _, err := tx.Exec(s.DB.Rebind(`DELETE FROM courses WHERE id = ?`), courseID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := tx.Commit(); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityCourses, courseID)
	s.invalidate(r, entityVideos)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SetCourseStatus(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
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
	existing, err := s.fetchCourse(courseID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`UPDATE courses SET status = ?, updated_at = ? WHERE id = ?`), status, now, courseID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityCourses, courseID)
	existing.Status = status
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, s.courseDTO(existing, s.videoCount(courseID)))
}

func (s *Server) fetchCourse(courseID string) (models.Course, error) {
	row := models.Course{}
	if err := s.DB.Get(&row, s.DB.Rebind(`
SELECT id, category_id, title, description, image_asset_id, status, created_at, updated_at
FROM courses WHERE id = ?
`), courseID); err != nil {
		return row, services.ErrNotFound("Course not found")
	}
	return row, nil
}

func (s *Server) videoCount(courseID string) int {
	var count int
	_ = s.DB.Get(&count, s.DB.Rebind(`SELECT COUNT(*) FROM course_videos WHERE course_id = ?`), courseID)
	return count
}
