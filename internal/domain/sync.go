package domain

import "context"

// Locker serializes imports that touch the same record collections.
type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// SyncService is the set of named sync operations.
type SyncService interface {
	SyncOwnedEvents(ctx context.Context, opts ListOptions) (*ImportReport, error)
	SyncEvent(ctx context.Context, eventID string) (*Event, error)
	SyncEventAttendees(ctx context.Context, eventID string, opts ListOptions) (*ImportReport, error)
	EventSummary(ctx context.Context, eventID string) (*EventSummary, error)
	ListEvents(ctx context.Context, p PaginationParams) ([]*Event, int, error)
}
