package services

import "strconv"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Pagination is the canonical list envelope block. Every list endpoint
// returns it, regardless of entity.
type Pagination struct {
	Page      int `json:"page"`
	Limit     int `json:"limit"`
	Total     int `json:"total"`
	TotalPage int `json:"totalPage"`
}

// ParsePageParams clamps raw page/limit query values into usable bounds.
// Malformed or absent values fall back to defaults.
func ParsePageParams(rawPage, rawLimit string) (page, limit int) {
	page = 1
	if parsed, err := strconv.Atoi(rawPage); err == nil && parsed > 0 {
		page = parsed
	}
	limit = DefaultPageSize
	if parsed, err := strconv.Atoi(rawLimit); err == nil && parsed > 0 {
		limit = parsed
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// NewPagination computes the envelope for a page of a result set. A page past
// the end keeps its requested number and reports truthful totals.
func NewPagination(page, limit, total int) Pagination {
	totalPage := 0
	if total > 0 {
		totalPage = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPage: totalPage}
}

// Offset is the SQL offset for a 1-based page.
func Offset(page, limit int) int {
	return (page - 1) * limit
}
