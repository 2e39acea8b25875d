package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventbritesync/internal/domain"
)

// foreignKeyViolation is the PostgreSQL SQLSTATE for a missing referenced row.
const foreignKeyViolation = "23503"

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func currency(m domain.Money) string {
	if m.Currency == "" {
		return domain.DefaultCurrency
	}
	return m.Currency
}

// wrapWriteError maps constraint violations onto domain errors.
func wrapWriteError(kind domain.Kind, ebID string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return fmt.Errorf("%s %s: %w: %s", kind, ebID, domain.ErrOrphan, pqErr.Message)
	}
	return err
}
