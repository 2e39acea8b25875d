package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventbritesync/internal/domain"
)

// OrderRepository stores mirrored orders.
type OrderRepository struct {
	DB *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

func (r *OrderRepository) GetByEBID(ctx context.Context, ebID string) (*domain.Order, error) {
	query := `SELECT id, eb_id, created, changed FROM orders WHERE eb_id = $1`
	o := &domain.Order{}
	var ebIDNull sql.NullString
	if err := r.DB.QueryRowContext(ctx, query, ebID).Scan(&o.ID, &ebIDNull, &o.Created, &o.Changed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	o.EBID = ebIDNull.String
	return o, nil
}

func (r *OrderRepository) Upsert(ctx context.Context, o *domain.Order) error {
	query := `
		INSERT INTO orders (eb_id, created, changed)
		VALUES ($1, $2, $3)
		ON CONFLICT (eb_id) DO UPDATE
		SET created = EXCLUDED.created, changed = EXCLUDED.changed
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, nullString(o.EBID), o.Created, o.Changed).Scan(&o.ID)
}
