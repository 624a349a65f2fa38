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

const entityVideos = "videos"

type VideoDTO struct {
	ID              string  `json:"id"`
	CourseID        string  `json:"courseId"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	VideoURL        *string `json:"videoUrl"`
	ThumbnailURL    *string `json:"thumbnailUrl"`
	DurationSeconds int     `json:"durationSeconds"`
	Serial          int     `json:"serial"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
}

type VideoUpsertRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationSeconds int    `json:"durationSeconds"`
	RemoveThumbnail bool   `json:"removeThumbnail"`
}

func (s *Server) videoDTO(row models.CourseVideo) VideoDTO {
	return VideoDTO{
		ID:              row.ID,
		CourseID:        row.CourseID,
		Title:           row.Title,
		Description:     row.Description,
		VideoURL:        s.assetURL(row.VideoAssetID),
		ThumbnailURL:    s.assetURL(row.ThumbnailAssetID),
		DurationSeconds: row.DurationSeconds,
		Serial:          row.Serial,
		Status:          string(row.Status),
		CreatedAt:       row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ListCourseVideos returns every video of one course in display order. The
// set is small by construction, so it is not paginated.
func (s *Server) ListCourseVideos(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	key := detailKey(entityVideos, "course/"+courseID)
	s.respondCached(w, r, key, []string{cache.ListTag(entityVideos)}, func() (interface{}, error) {
		if _, err := s.fetchCourse(courseID); err != nil {
			return nil, err
		}
		rows, err := s.courseVideos(courseID)
		if err != nil {
			return nil, err
		}
		items := make([]VideoDTO, 0, len(rows))
		for _, row := range rows {
			items = append(items, s.videoDTO(row))
		}
		return map[string][]VideoDTO{"data": items}, nil
	})
}

func (s *Server) GetVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")
	key := detailKey(entityVideos, videoID)
	s.respondCached(w, r, key, []string{cache.DetailTag(entityVideos, videoID)}, func() (interface{}, error) {
		row, err := s.fetchVideo(videoID)
		if err != nil {
			return nil, err
		}
		return s.videoDTO(row), nil
	})
}

// CreateCourseVideo appends a video at the end of the course's ordering.
// Duration arrives from the uploader's playback probe and stays editable.
func (s *Server) CreateCourseVideo(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	if _, err := s.fetchCourse(courseID); err != nil {
		s.respondError(w, err)
		return
	}
	var req VideoUpsertRequest
	form, err := decodePayload(r, &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	title, err := services.NormalizeRequired(req.Title, "Video title is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	if req.DurationSeconds < 0 {
		WriteError(w, http.StatusBadRequest, "Duration cannot be negative")
		return
	}
	videoAssetID, err := s.saveUpload(form, "video", services.BucketVideos, maxVideoUpload)
	if err != nil {
		s.respondError(w, err)
		return
	}
	thumbnailID, err := s.saveUpload(form, "thumbnail", services.BucketVideos, maxImageUpload)
	if err != nil {
		s.respondError(w, err)
		return
	}
	serial, err := services.NextSerial(s.DB, "course_videos", "course_id", courseID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	videoID := uuid.NewString()
	_, err = s.DB.Exec(s.DB.Rebind(`
INSERT INTO course_videos (id, course_id, title, description, video_asset_id, thumbnail_asset_id, duration_seconds, serial, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
`), videoID, courseID, title, req.Description, videoAssetID, thumbnailID, req.DurationSeconds, serial, models.StatusActive, now, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityVideos)
	s.invalidate(r, entityCourses, courseID)
	WriteJSON(w, http.StatusCreated, s.videoDTO(models.CourseVideo{
		ID: videoID, CourseID: courseID, Title: title, Description: req.Description,
		VideoAssetID: videoAssetID, ThumbnailAssetID: thumbnailID,
		DurationSeconds: req.DurationSeconds, Serial: serial, Status: models.StatusActive,
		CreatedAt: now, UpdatedAt: now,
	}))
}

func (s *Server) UpdateVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")
	existing, err := s.fetchVideo(videoID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req VideoUpsertRequest
	form, err := decodePayload(r, &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	title, err := services.NormalizeRequired(req.Title, "Video title is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	if req.DurationSeconds < 0 {
		WriteError(w, http.StatusBadRequest, "Duration cannot be negative")
		return
	}
	videoAssetID := existing.VideoAssetID
	if uploaded, err := s.saveUpload(form, "video", services.BucketVideos, maxVideoUpload); err != nil {
		s.respondError(w, err)
		return
	} else if uploaded != nil {
		videoAssetID = uploaded
	}
	thumbnailID := existing.ThumbnailAssetID
	uploadedThumb, err := s.saveUpload(form, "thumbnail", services.BucketVideos, maxImageUpload)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if uploadedThumb != nil {
		thumbnailID = uploadedThumb
	} else if req.RemoveThumbnail {
		thumbnailID = nil
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`
UPDATE course_videos
SET title = ?, description = ?, video_asset_id = ?, thumbnail_asset_id = ?, duration_seconds = ?, updated_at = ?
WHERE id = ?
`), title, req.Description, videoAssetID, thumbnailID, req.DurationSeconds, now, videoID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityVideos, videoID)
	existing.Title = title
	existing.Description = req.Description
	existing.VideoAssetID = videoAssetID
	existing.ThumbnailAssetID = thumbnailID
	existing.DurationSeconds = req.DurationSeconds
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, s.videoDTO(existing))
}

// DeleteVideo removes the video and closes the serial gap it leaves.
func (s *Server) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")
	existing, err := s.fetchVideo(videoID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	tx, err := s.DB.Beginx()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer tx.Rollback()
	if _, err := tx.Exec(s.DB.Rebind(`DELETE FROM course_videos WHERE id = ?`), videoID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if _, err := tx.Exec(s.DB.Rebind(`
UPDATE course_videos SET serial = serial - 1 WHERE course_id = ? AND serial > ?
`), existing.CourseID, existing.Serial); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err := tx.Commit(); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	// The resequence shifts every later sibling, so their cached details are
	// stale too, not just the deleted video's.
	ids := []string{videoID}
	if siblings, err := s.courseVideos(existing.CourseID); err == nil {
		for _, sibling := range siblings {
			ids = append(ids, sibling.ID)
		}
	}
	s.invalidate(r, entityVideos, ids...)
	s.invalidate(r, entityCourses, existing.CourseID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SetVideoStatus(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")
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
	existing, err := s.fetchVideo(videoID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`UPDATE course_videos SET status = ?, updated_at = ? WHERE id = ?`), status, now, videoID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityVideos, videoID)
	existing.Status = status
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, s.videoDTO(existing))
}

func (s *Server) ReorderCourseVideos(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseId")
	if _, err := s.fetchCourse(courseID); err != nil {
		s.respondError(w, err)
		return
	}
	var items []services.OrderedItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := services.CommitOrder(s.DB, "course_videos", "course_id", courseID, items); err != nil {
		s.respondError(w, err)
		return
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	s.invalidate(r, entityVideos, ids...)
	rows, err := s.courseVideos(courseID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	committed := make([]VideoDTO, 0, len(rows))
	for _, row := range rows {
		committed = append(committed, s.videoDTO(row))
	}
	WriteJSON(w, http.StatusOK, committed)
}

func (s *Server) fetchVideo(videoID string) (models.CourseVideo, error) {
	row := models.CourseVideo{}
	if err := s.DB.Get(&row, s.DB.Rebind(`
SELECT id, course_id, title, description, video_asset_id, thumbnail_asset_id, duration_seconds, serial, status, created_at, updated_at
FROM course_videos WHERE id = ?
`), videoID); err != nil {
		return row, services.ErrNotFound("Video not found")
	}
	return row, nil
}

func (s *Server) courseVideos(courseID string) ([]models.CourseVideo, error) {
	rows := []models.CourseVideo{}
	err := s.DB.Select(&rows, s.DB.Rebind(`
SELECT id, course_id, title, description, video_asset_id, thumbnail_asset_id, duration_seconds, serial, status, created_at, updated_at
FROM course_videos WHERE course_id = ? ORDER BY serial ASC
`), courseID)
	return rows, err
}
