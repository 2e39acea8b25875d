package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"eventbritesync/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*RecordStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRecordStore(db), mock
}

func TestRecordStore_SaveDispatchesByType(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	orderID := int64(11)

	tests := []struct {
		name   string
		rec    domain.Record
		mock   func(mock sqlmock.Sqlmock)
		wantID int64
	}{
		{
			name: "ticket type",
			rec: &domain.TicketType{
				Identity: domain.Identity{EBID: "t1"}, Name: "GA", EventID: 7, QuantitySold: 3,
				Cost: domain.NewMoney(decimal.RequireFromString("15"), "USD"),
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO ticket_types`).
					WithArgs("t1", "GA", nil, sqlmock.AnyArg(), "USD", sqlmock.AnyArg(), "USD", false, false, 3, int64(7)).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))
			},
			wantID: 21,
		},
		{
			name: "order",
			rec:  &domain.Order{Identity: domain.Identity{EBID: "o1"}, Created: created, Changed: created},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO orders \(eb_id, created, changed\)`).
					WithArgs("o1", created, created).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orderID))
			},
			wantID: orderID,
		},
		{
			name: "attendee",
			rec: &domain.Attendee{
				Identity: domain.Identity{EBID: "a1"}, Name: "Ann Lee", Email: "ann@example.com",
				CellPhone: "555", Quantity: 1, Status: "Attending", EventID: 7, OrderID: &orderID,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO attendees`).
					WithArgs("a1", "Ann Lee", "", "", "ann@example.com", "555", nil, nil,
						1, "Attending", sqlmock.AnyArg(), "USD", sqlmock.AnyArg(), "USD",
						false, false, int64(7), orderID).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(31)))
			},
			wantID: 31,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.mock(mock)

			require.NoError(t, store.Save(ctx, tt.rec))
			assert.Equal(t, tt.wantID, tt.rec.StorageID())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecordStore_SaveRejects(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		rec     domain.Record
		wantErr error
	}{
		{"missing external id", &domain.Order{}, domain.ErrMissingExternalID},
		{"orphan ticket", &domain.TicketType{Identity: domain.Identity{EBID: "t1"}}, domain.ErrOrphan},
		{"orphan attendee", &domain.Attendee{Identity: domain.Identity{EBID: "a1"}}, domain.ErrOrphan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			err := store.Save(ctx, tt.rec)
			require.ErrorIs(t, err, tt.wantErr)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecordStore_SaveMapsForeignKeyViolation(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO ticket_types`).
		WillReturnError(&pq.Error{Code: "23503", Message: `insert or update on table "ticket_types" violates foreign key constraint`})

	err := store.Save(context.Background(), &domain.TicketType{Identity: domain.Identity{EBID: "t1"}, EventID: 99})
	require.ErrorIs(t, err, domain.ErrOrphan)
	assert.Contains(t, err.Error(), "t1")
}

func TestRecordStore_SavePassesOtherErrors(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO orders`).WillReturnError(sql.ErrConnDone)

	err := store.Save(context.Background(), &domain.Order{Identity: domain.Identity{EBID: "o1"}})
	require.ErrorIs(t, err, sql.ErrConnDone)
}

func TestRecordStore_FindByExternalID(t *testing.T) {
	ctx := context.Background()

	t.Run("order found", func(t *testing.T) {
		store, mock := newMockStore(t)
		ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT id, eb_id, created, changed FROM orders WHERE eb_id = \$1`).
			WithArgs("o1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "eb_id", "created", "changed"}).AddRow(int64(11), "o1", ts, ts))

		rec, err := store.FindByExternalID(ctx, domain.KindOrder, "o1")
		require.NoError(t, err)
		assert.Equal(t, int64(11), rec.StorageID())
		assert.Equal(t, "o1", rec.ExternalID())
	})

	t.Run("attendee not found is a nil record", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`FROM attendees`).WithArgs("a1").WillReturnError(sql.ErrNoRows)

		rec, err := store.FindByExternalID(ctx, domain.KindAttendee, "a1")
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, rec)
	})

	t.Run("attendee with order", func(t *testing.T) {
		store, mock := newMockStore(t)
		cols := []string{"id", "eb_id", "name", "first_name", "last_name", "email", "cell_phone", "home_phone", "work_phone",
			"quantity", "status", "gross_amount", "gross_currency", "fee_amount", "fee_currency",
			"refunded", "canceled", "event_id", "order_id"}
		mock.ExpectQuery(`FROM attendees`).WithArgs("a1").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(
				int64(31), "a1", "Ann Lee", "Ann", "Lee", "ann@example.com", nil, nil, "555",
				1, "Attending", "16.50", "USD", "1.50", "USD", false, false, int64(7), int64(11)))

		rec, err := store.FindByExternalID(ctx, domain.KindAttendee, "a1")
		require.NoError(t, err)
		a := rec.(*domain.Attendee)
		assert.Equal(t, "555", a.WorkPhone)
		assert.Equal(t, "16.50 USD", a.Gross.String())
		require.NotNil(t, a.OrderID)
		assert.Equal(t, int64(11), *a.OrderID)
	})

	t.Run("unknown kind", func(t *testing.T) {
		store, _ := newMockStore(t)
		_, err := store.FindByExternalID(ctx, domain.Kind("venue"), "1")
		require.ErrorIs(t, err, domain.ErrUnknownKind)
	})
}
