package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventbritesync/internal/domain"
)

// EventRepository stores mirrored events.
type EventRepository struct {
	DB  *sql.DB
	now func() time.Time
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{DB: db, now: time.Now}
}

const eventColumns = `id, eb_id, eb_url, name, description, start_time, end_time, capacity, status, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var ebID, ebURL, desc sql.NullString
	var status string
	if err := row.Scan(&e.ID, &ebID, &ebURL, &e.Name, &desc, &e.Start, &e.End, &e.Capacity, &status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.EBID, e.EBURL, e.Description = ebID.String, ebURL.String, desc.String
	e.Status = domain.EventStatus(status)
	return e, nil
}

// GetByEBID returns the event with the given external id.
func (r *EventRepository) GetByEBID(ctx context.Context, ebID string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE eb_id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, ebID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Upsert inserts e or updates the row with the same external id, and sets e.ID.
func (r *EventRepository) Upsert(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (eb_id, eb_url, name, description, start_time, end_time, capacity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (eb_id) DO UPDATE
		SET eb_url = EXCLUDED.eb_url, name = EXCLUDED.name, description = EXCLUDED.description,
			start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time, capacity = EXCLUDED.capacity,
			status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at
	`
	now := r.now()
	return r.DB.QueryRowContext(ctx, query,
		nullString(e.EBID), nullString(e.EBURL), e.Name, nullString(e.Description),
		e.Start, e.End, e.Capacity, string(e.Status), now,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// List returns a page of events, latest end first, and the total count.
// p.All() lists every event.
func (r *EventRepository) List(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY end_time DESC, id`
	var args []any
	if !p.All() {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, p.PageSize, p.Offset())
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

// Summary aggregates ticket and attendee figures for the event with external id ebID.
func (r *EventRepository) Summary(ctx context.Context, ebID string) (*domain.EventSummary, error) {
	query := `
		SELECT e.id, e.eb_id, e.name,
			COALESCE((SELECT SUM(t.quantity_sold) FROM ticket_types t WHERE t.event_id = e.id), 0),
			(SELECT COUNT(*) FROM attendees a WHERE a.event_id = e.id AND a.refunded),
			(SELECT COUNT(*) FROM attendees a WHERE a.event_id = e.id AND a.canceled),
			COALESCE((SELECT SUM(a.gross_amount) FROM attendees a WHERE a.event_id = e.id AND NOT a.refunded), 0),
			COALESCE((SELECT MIN(a.gross_currency) FROM attendees a WHERE a.event_id = e.id AND NOT a.refunded), $2),
			(SELECT COUNT(DISTINCT a.gross_currency) FROM attendees a WHERE a.event_id = e.id AND NOT a.refunded)
		FROM events e
		WHERE e.eb_id = $1
	`
	s := &domain.EventSummary{}
	var currencies int
	err := r.DB.QueryRowContext(ctx, query, ebID, domain.DefaultCurrency).Scan(
		&s.EventID, &s.EBID, &s.Name,
		&s.QuantitySold, &s.QuantityRefunded, &s.QuantityCanceled,
		&s.TicketSales.Amount, &s.TicketSales.Currency, &currencies,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if currencies > 1 {
		return nil, fmt.Errorf("event %s: ticket sales span %d currencies", ebID, currencies)
	}
	return s, nil
}
