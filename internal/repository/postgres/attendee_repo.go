package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventbritesync/internal/domain"
)

// AttendeeRepository stores mirrored attendees.
type AttendeeRepository struct {
	DB *sql.DB
}

func NewAttendeeRepository(db *sql.DB) *AttendeeRepository {
	return &AttendeeRepository{DB: db}
}

// GetByEBID returns the attendee with the given external id. The order is not loaded.
func (r *AttendeeRepository) GetByEBID(ctx context.Context, ebID string) (*domain.Attendee, error) {
	query := `
		SELECT id, eb_id, name, first_name, last_name, email, cell_phone, home_phone, work_phone,
			quantity, status, gross_amount, gross_currency, fee_amount, fee_currency,
			refunded, canceled, event_id, order_id
		FROM attendees
		WHERE eb_id = $1
	`
	a := &domain.Attendee{}
	var ebIDNull, cell, home, work sql.NullString
	var orderID sql.NullInt64
	err := r.DB.QueryRowContext(ctx, query, ebID).Scan(
		&a.ID, &ebIDNull, &a.Name, &a.FirstName, &a.LastName, &a.Email, &cell, &home, &work,
		&a.Quantity, &a.Status, &a.Gross.Amount, &a.Gross.Currency, &a.Fee.Amount, &a.Fee.Currency,
		&a.Refunded, &a.Canceled, &a.EventID, &orderID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	a.EBID, a.CellPhone, a.HomePhone, a.WorkPhone = ebIDNull.String, cell.String, home.String, work.String
	if orderID.Valid {
		id := orderID.Int64
		a.OrderID = &id
	}
	return a, nil
}

// Upsert inserts a or updates the row with the same external id, and sets a.ID.
func (r *AttendeeRepository) Upsert(ctx context.Context, a *domain.Attendee) error {
	query := `
		INSERT INTO attendees (eb_id, name, first_name, last_name, email, cell_phone, home_phone, work_phone,
			quantity, status, gross_amount, gross_currency, fee_amount, fee_currency,
			refunded, canceled, event_id, order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (eb_id) DO UPDATE
		SET name = EXCLUDED.name, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			email = EXCLUDED.email, cell_phone = EXCLUDED.cell_phone, home_phone = EXCLUDED.home_phone,
			work_phone = EXCLUDED.work_phone, quantity = EXCLUDED.quantity, status = EXCLUDED.status,
			gross_amount = EXCLUDED.gross_amount, gross_currency = EXCLUDED.gross_currency,
			fee_amount = EXCLUDED.fee_amount, fee_currency = EXCLUDED.fee_currency,
			refunded = EXCLUDED.refunded, canceled = EXCLUDED.canceled,
			event_id = EXCLUDED.event_id, order_id = EXCLUDED.order_id
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		nullString(a.EBID), a.Name, a.FirstName, a.LastName, a.Email,
		nullString(a.CellPhone), nullString(a.HomePhone), nullString(a.WorkPhone),
		a.Quantity, a.Status, a.Gross.Amount, currency(a.Gross), a.Fee.Amount, currency(a.Fee),
		a.Refunded, a.Canceled, a.EventID, nullInt64(a.OrderID),
	).Scan(&a.ID)
}
