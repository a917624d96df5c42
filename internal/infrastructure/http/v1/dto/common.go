// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"rfidstock/internal/domain"
	"rfidstock/internal/domain/filter"
)

// --- Pagination ---

// HistoryQuery bounds a tag history read.
type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ListQuery contains list paging, ordering and search parameters.
type ListQuery struct {
	Limit   int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset  int    `form:"offset" binding:"omitempty,min=0"`
	OrderBy string `form:"order_by"`
	Search  string `form:"search"`
}

// ToFilter maps the query onto a list filter; zero values fall back to defaults.
func (q ListQuery) ToFilter() domain.ListFilter {
	f := domain.DefaultListFilter()
	if q.Limit > 0 {
		f.Limit = q.Limit
	}
	f.Offset = q.Offset
	f.Search = q.Search
	if q.OrderBy != "" {
		f.OrderBy = filter.ParseOrder(q.OrderBy)
	}
	return f
}

// RecentQuery limits the home feed.
type RecentQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
