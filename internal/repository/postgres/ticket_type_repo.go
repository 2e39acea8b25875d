package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventbritesync/internal/domain"
)

// TicketTypeRepository stores mirrored ticket classes.
type TicketTypeRepository struct {
	DB *sql.DB
}

func NewTicketTypeRepository(db *sql.DB) *TicketTypeRepository {
	return &TicketTypeRepository{DB: db}
}

// GetByEBID returns the ticket type with the given external id.
func (r *TicketTypeRepository) GetByEBID(ctx context.Context, ebID string) (*domain.TicketType, error) {
	query := `
		SELECT id, eb_id, name, description, cost_amount, cost_currency, fee_amount, fee_currency,
			donation, free, quantity_sold, event_id
		FROM ticket_types
		WHERE eb_id = $1
	`
	t := &domain.TicketType{}
	var ebIDNull, desc sql.NullString
	err := r.DB.QueryRowContext(ctx, query, ebID).Scan(
		&t.ID, &ebIDNull, &t.Name, &desc,
		&t.Cost.Amount, &t.Cost.Currency, &t.Fee.Amount, &t.Fee.Currency,
		&t.Donation, &t.Free, &t.QuantitySold, &t.EventID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	t.EBID, t.Description = ebIDNull.String, desc.String
	return t, nil
}

// Upsert inserts t or updates the row with the same external id, and sets t.ID.
func (r *TicketTypeRepository) Upsert(ctx context.Context, t *domain.TicketType) error {
	query := `
		INSERT INTO ticket_types (eb_id, name, description, cost_amount, cost_currency, fee_amount, fee_currency,
			donation, free, quantity_sold, event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (eb_id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description,
			cost_amount = EXCLUDED.cost_amount, cost_currency = EXCLUDED.cost_currency,
			fee_amount = EXCLUDED.fee_amount, fee_currency = EXCLUDED.fee_currency,
			donation = EXCLUDED.donation, free = EXCLUDED.free,
			quantity_sold = EXCLUDED.quantity_sold, event_id = EXCLUDED.event_id
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		nullString(t.EBID), t.Name, nullString(t.Description),
		t.Cost.Amount, currency(t.Cost), t.Fee.Amount, currency(t.Fee),
		t.Donation, t.Free, t.QuantitySold, t.EventID,
	).Scan(&t.ID)
}
