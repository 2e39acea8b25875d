package helpers

import (
	"fmt"
	"net/url"
	"strconv"

	"eventbritesync/internal/domain"
)

// Listing defaults for GET /events.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ParsePagination reads page and page_size from q. Missing values take the
// defaults and page_size is capped at MaxPageSize; anything that is not a
// positive integer is rejected, so the HTTP surface never asks for every event.
func ParsePagination(q url.Values) (domain.PaginationParams, error) {
	page, err := positiveParam(q, "page", 1)
	if err != nil {
		return domain.PaginationParams{}, err
	}
	size, err := positiveParam(q, "page_size", DefaultPageSize)
	if err != nil {
		return domain.PaginationParams{}, err
	}
	return domain.PaginationParams{Page: page, PageSize: min(size, MaxPageSize)}, nil
}

func positiveParam(q url.Values, name string, def int) (int, error) {
	s := q.Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, s)
	}
	return v, nil
}

// PaginationMeta describes the page returned by a list endpoint.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPaginationMeta describes the page p selects out of total events.
func NewPaginationMeta(p domain.PaginationParams, total int) PaginationMeta {
	pages := p.PageCount(total)
	page := p.Page
	if p.All() {
		page = 1
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
	}
}
