package domain

import (
	"cmp"
	"slices"
)

// PaginationParams selects a page of mirrored events. Page is 1-based; a
// PageSize of 0 or less asks for every event, in which case Page is ignored.
type PaginationParams struct {
	Page     int
	PageSize int
}

// All reports whether p asks for every event.
func (p PaginationParams) All() bool { return p.PageSize <= 0 }

// Offset is the number of events skipped before the page.
func (p PaginationParams) Offset() int {
	if p.All() || p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Window returns the [start, end) bounds of the page within total ordered events.
func (p PaginationParams) Window(total int) (start, end int) {
	start = min(p.Offset(), total)
	if p.All() {
		return start, total
	}
	return start, min(start+p.PageSize, total)
}

// PageCount is the number of pages total events span under p.
func (p PaginationParams) PageCount(total int) int {
	switch {
	case total == 0:
		return 0
	case p.All():
		return 1
	}
	return (total + p.PageSize - 1) / p.PageSize
}

// SortForListing orders events the way every store lists them: latest end
// first, storage id breaking ties.
func SortForListing(events []*Event) {
	slices.SortFunc(events, func(a, b *Event) int {
		if c := b.End.Compare(a.End); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
