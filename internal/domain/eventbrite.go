package domain

import (
	"context"
	"time"
)

// Pagination is the paging block Eventbrite attaches to every list response.
type Pagination struct {
	PageNumber   int  `json:"page_number"`
	PageCount    int  `json:"page_count"`
	PageSize     int  `json:"page_size"`
	ObjectCount  int  `json:"object_count"`
	HasMoreItems bool `json:"has_more_items"`
}

// Page is one page of a paged listing: the items under the listing key plus pagination.
type Page struct {
	Items      []Payload
	Pagination Pagination
}

// ListOptions filters a paged listing.
type ListOptions struct {
	Status       string
	OrderBy      string
	Expand       []string
	ChangedSince *time.Time
}

// EventbriteClient is the authenticated API capability the sync engine consumes.
type EventbriteClient interface {
	GetCurrentUser(ctx context.Context) (Payload, error)
	GetUserOwnedEvents(ctx context.Context, userID string, page int, opts ListOptions) (Page, error)
	GetEvent(ctx context.Context, eventID string, expand ...string) (Payload, error)
	GetEventAttendees(ctx context.Context, eventID string, page int, opts ListOptions) (Page, error)
}
