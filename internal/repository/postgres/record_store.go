package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"eventbritesync/internal/domain"
)

// RecordStore implements domain.RecordStore and domain.EventQueries on PostgreSQL.
// Every collection is unique on eb_id, so Save is a single-row upsert.
type RecordStore struct {
	events    *EventRepository
	tickets   *TicketTypeRepository
	orders    *OrderRepository
	attendees *AttendeeRepository
}

var (
	_ domain.RecordStore  = (*RecordStore)(nil)
	_ domain.EventQueries = (*RecordStore)(nil)
)

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{
		events:    NewEventRepository(db),
		tickets:   NewTicketTypeRepository(db),
		orders:    NewOrderRepository(db),
		attendees: NewAttendeeRepository(db),
	}
}

func (s *RecordStore) FindByExternalID(ctx context.Context, kind domain.Kind, externalID string) (domain.Record, error) {
	switch kind {
	case domain.KindEvent:
		return found(s.events.GetByEBID(ctx, externalID))
	case domain.KindTicketType:
		return found(s.tickets.GetByEBID(ctx, externalID))
	case domain.KindOrder:
		return found(s.orders.GetByEBID(ctx, externalID))
	case domain.KindAttendee:
		return found(s.attendees.GetByEBID(ctx, externalID))
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
}

// found keeps a failed lookup from returning a typed nil inside a non-nil Record.
func found[R domain.Record](rec R, err error) (domain.Record, error) {
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *RecordStore) Save(ctx context.Context, rec domain.Record) error {
	if rec.ExternalID() == "" {
		return fmt.Errorf("%s: %w", rec.Kind(), domain.ErrMissingExternalID)
	}
	if v, ok := rec.(domain.Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	var err error
	switch r := rec.(type) {
	case *domain.Event:
		err = s.events.Upsert(ctx, r)
	case *domain.TicketType:
		err = s.tickets.Upsert(ctx, r)
	case *domain.Order:
		err = s.orders.Upsert(ctx, r)
	case *domain.Attendee:
		err = s.attendees.Upsert(ctx, r)
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnknownKind, rec)
	}
	if err != nil {
		return wrapWriteError(rec.Kind(), rec.ExternalID(), err)
	}
	return nil
}

func (s *RecordStore) EventSummary(ctx context.Context, ebID string) (*domain.EventSummary, error) {
	return s.events.Summary(ctx, ebID)
}

func (s *RecordStore) ListEvents(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, int, error) {
	return s.events.List(ctx, p)
}
