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

const entityAuctions = "auctions"

type AuctionDTO struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    *string `json:"imageUrl"`
	StartPrice  float64 `json:"startPrice"`
	StartsAt    string  `json:"startsAt"`
	EndsAt      string  `json:"endsAt"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type AuctionUpsertRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartPrice  float64   `json:"startPrice"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	RemoveImage bool      `json:"removeImage"`
}

func (s *Server) auctionDTO(row models.Auction) AuctionDTO {
	return AuctionDTO{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		ImageURL:    s.assetURL(row.ImageAssetID),
		StartPrice:  row.StartPrice,
		StartsAt:    row.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:      row.EndsAt.UTC().Format(time.RFC3339),
		Status:      string(row.Status),
		CreatedAt:   row.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   row.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func validateAuction(req AuctionUpsertRequest, requireFutureEnd bool) error {
	if req.StartPrice <= 0 {
		return services.ErrBadRequest("Start price must be greater than zero")
	}
	if req.StartsAt.IsZero() || req.EndsAt.IsZero() {
		return services.ErrBadRequest("Start and end times are required")
	}
	if !req.EndsAt.After(req.StartsAt) {
		return services.ErrBadRequest("End time must be after start time")
	}
	if requireFutureEnd && req.EndsAt.Before(time.Now().UTC()) {
		return services.ErrBadRequest("End time must be in the future")
	}
	return nil
}

func (s *Server) ListAuctions(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r)
	key := listKey(entityAuctions, params)
	s.respondCached(w, r, key, []string{cache.ListTag(entityAuctions)}, func() (interface{}, error) {
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
		var total int
		if err := s.DB.Get(&total, s.DB.Rebind(`SELECT COUNT(*) FROM auctions`+where), args...); err != nil {
			return nil, err
		}
		rows := []models.Auction{}
		query := `
SELECT id, title, description, image_asset_id, start_price, starts_at, ends_at, status, created_at, updated_at
FROM auctions` + where + `
ORDER BY starts_at DESC
LIMIT ? OFFSET ?`
		pageArgs := append(args, params.Limit, services.Offset(params.Page, params.Limit))
		if err := s.DB.Select(&rows, s.DB.Rebind(query), pageArgs...); err != nil {
			return nil, err
		}
		items := make([]AuctionDTO, 0, len(rows))
		for _, row := range rows {
			items = append(items, s.auctionDTO(row))
		}
		return ListResponse{Data: items, Pagination: services.NewPagination(params.Page, params.Limit, total)}, nil
	})
}

func (s *Server) GetAuction(w http.ResponseWriter, r *http.Request) {
	auctionID := chi.URLParam(r, "auctionId")
	key := detailKey(entityAuctions, auctionID)
	s.respondCached(w, r, key, []string{cache.DetailTag(entityAuctions, auctionID)}, func() (interface{}, error) {
		row, err := s.fetchAuction(auctionID)
		if err != nil {
			return nil, err
		}
		return s.auctionDTO(row), nil
	})
}

func (s *Server) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var req AuctionUpsertRequest
	form, err := decodePayload(r, &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	title, err := services.NormalizeRequired(req.Title, "Auction title is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := validateAuction(req, true); err != nil {
		s.respondError(w, err)
		return
	}
	imageID, err := s.saveUpload(form, "image", services.BucketAuctions, maxImageUpload)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	auctionID := uuid.NewString()
	_, err = s.DB.Exec(s.DB.Rebind(`
INSERT INTO auctions (id, title, description, image_asset_id, start_price, starts_at, ends_at, status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?)
`), auctionID, title, req.Description, imageID, req.StartPrice, req.StartsAt.UTC(), req.EndsAt.UTC(), models.StatusActive, now, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityAuctions)
	WriteJSON(w, http.StatusCreated, s.auctionDTO(models.Auction{
		ID: auctionID, Title: title, Description: req.Description, ImageAssetID: imageID,
		StartPrice: req.StartPrice, StartsAt: req.StartsAt.UTC(), EndsAt: req.EndsAt.UTC(),
		Status: models.StatusActive, CreatedAt: now, UpdatedAt: now,
	}))
}

func (s *Server) UpdateAuction(w http.ResponseWriter, r *http.Request) {
	auctionID := chi.URLParam(r, "auctionId")
	existing, err := s.fetchAuction(auctionID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	var req AuctionUpsertRequest
	form, err := decodePayload(r, &req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	title, err := services.NormalizeRequired(req.Title, "Auction title is required")
	if err != nil {
		s.respondError(w, err)
		return
	}
	if err := validateAuction(req, false); err != nil {
		s.respondError(w, err)
		return
	}
	imageID := existing.ImageAssetID
	uploaded, err := s.saveUpload(form, "image", services.BucketAuctions, maxImageUpload)
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
UPDATE auctions
SET title = ?, description = ?, image_asset_id = ?, start_price = ?, starts_at = ?, ends_at = ?, updated_at = ?
WHERE id = ?
`), title, req.Description, imageID, req.StartPrice, req.StartsAt.UTC(), req.EndsAt.UTC(), now, auctionID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityAuctions, auctionID)
	existing.Title = title
	existing.Description = req.Description
	existing.ImageAssetID = imageID
	existing.StartPrice = req.StartPrice
	existing.StartsAt = req.StartsAt.UTC()
	existing.EndsAt = req.EndsAt.UTC()
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, s.auctionDTO(existing))
}

func (s *Server) DeleteAuction(w http.ResponseWriter, r *http.Request) {
	auctionID := chi.URLParam(r, "auctionId")
	if _, err := s.fetchAuction(auctionID); err != nil {
		s.respondError(w, err)
		return
	}
	_, _ = s.DB.Exec(s.DB.Rebind(`DELETE FROM auctions WHERE id = ?`), auctionID)
	s.invalidate(r, entityAuctions, auctionID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) SetAuctionStatus(w http.ResponseWriter, r *http.Request) {
	auctionID := chi.URLParam(r, "auctionId")
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
	existing, err := s.fetchAuction(auctionID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	now := time.Now().UTC()
	_, err = s.DB.Exec(s.DB.Rebind(`UPDATE auctions SET status = ?, updated_at = ? WHERE id = ?`), status, now, auctionID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.invalidate(r, entityAuctions, auctionID)
	existing.Status = status
	existing.UpdatedAt = now
	WriteJSON(w, http.StatusOK, s.auctionDTO(existing))
}

func (s *Server) fetchAuction(auctionID string) (models.Auction, error) {
	row := models.Auction{}
	if err := s.DB.Get(&row, s.DB.Rebind(`
SELECT id, title, description, image_asset_id, start_price, starts_at, ends_at, status, created_at, updated_at
FROM auctions WHERE id = ?
`), auctionID); err != nil {
		return row, services.ErrNotFound("Auction not found")
	}
	return row, nil
}
