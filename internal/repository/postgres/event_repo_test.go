package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"eventbritesync/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventRowColumns = []string{"id", "eb_id", "eb_url", "name", "description", "start_time", "end_time", "capacity", "status", "created_at", "updated_at"}

func TestEventRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	tests := []struct {
		name    string
		event   *domain.Event
		mock    func(mock sqlmock.Sqlmock)
		wantID  int64
		wantErr bool
	}{
		{
			name: "insert",
			event: &domain.Event{
				Identity: domain.Identity{EBID: "100"},
				Name:     "Gala", Start: start, End: end, Capacity: 200, Status: domain.EventStatusLive,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events \(eb_id, eb_url, name, description, start_time, end_time, capacity, status, created_at, updated_at\)`).
					WithArgs("100", nil, "Gala", nil, start, end, 200, "live", now).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))
			},
			wantID: 7,
		},
		{
			name:  "update keeps created_at",
			event: &domain.Event{Identity: domain.Identity{ID: 7, EBID: "100"}, EBURL: "https://eb/e/100", Name: "Gala", Description: "<p>x</p>"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`ON CONFLICT \(eb_id\) DO UPDATE`).
					WithArgs("100", "https://eb/e/100", "Gala", "<p>x</p>", time.Time{}, time.Time{}, 0, "", now).
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now.Add(-time.Hour), now))
			},
			wantID: 7,
		},
		{
			name:  "db error",
			event: &domain.Event{Identity: domain.Identity{EBID: "100"}},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO events`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewEventRepository(db)
			repo.now = func() time.Time { return now }
			err = repo.Upsert(ctx, tt.event)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.event.ID)
			require.Equal(t, now, tt.event.UpdatedAt)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_GetByEBID(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    *domain.Event
		wantErr error
	}{
		{
			name: "found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM events WHERE eb_id = \$1`).
					WithArgs("100").
					WillReturnRows(sqlmock.NewRows(eventRowColumns).
						AddRow(int64(7), "100", nil, "Gala", nil, ts, ts, 50, "live", ts, ts))
			},
			want: &domain.Event{
				Identity: domain.Identity{ID: 7, EBID: "100"},
				Name:     "Gala", Start: ts, End: ts, Capacity: 50, Status: domain.EventStatusLive,
				CreatedAt: ts, UpdatedAt: ts,
			},
		},
		{
			name: "not found",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM events WHERE eb_id`).WithArgs("100").WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			got, err := NewEventRepository(db).GetByEBID(ctx, "100")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_List(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`ORDER BY end_time DESC, id LIMIT \$1 OFFSET \$2`).
		WithArgs(2, 2).
		WillReturnRows(sqlmock.NewRows(eventRowColumns).
			AddRow(int64(1), "100", nil, "Old", nil, ts, ts, 10, "ended", ts, ts))

	events, total, err := NewEventRepository(db).List(ctx, domain.PaginationParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, events, 1)
	assert.Equal(t, "Old", events[0].Name)
	assert.Equal(t, domain.EventStatusEnded, events[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_ListAll(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`ORDER BY end_time DESC, id$`).
		WillReturnRows(sqlmock.NewRows(eventRowColumns).
			AddRow(int64(2), "200", nil, "New", nil, ts, ts, 10, "live", ts, ts).
			AddRow(int64(1), "100", nil, "Old", nil, ts, ts, 10, "ended", ts, ts))

	events, total, err := NewEventRepository(db).List(ctx, domain.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, events, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Summary(t *testing.T) {
	ctx := context.Background()
	cols := []string{"id", "eb_id", "name", "sold", "refunded", "canceled", "gross", "currency", "currencies"}

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM events e\s+WHERE e.eb_id = \$1`).
			WithArgs("100", domain.DefaultCurrency).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(7), "100", "Gala", 5, 1, 2, "33.00", "USD", 1))

		s, err := NewEventRepository(db).Summary(ctx, "100")
		require.NoError(t, err)
		assert.Equal(t, int64(7), s.EventID)
		assert.Equal(t, 5, s.QuantitySold)
		assert.Equal(t, 1, s.QuantityRefunded)
		assert.Equal(t, 2, s.QuantityCanceled)
		assert.True(t, s.TicketSales.Amount.Equal(decimal.RequireFromString("33")))
		assert.Equal(t, "33.00 USD", s.TicketSales.String())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("mixed currencies", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM events e`).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(7), "100", "Gala", 5, 0, 0, "33.00", "EUR", 2))

		_, err = NewEventRepository(db).Summary(ctx, "100")
		assert.ErrorContains(t, err, "2 currencies")
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM events e`).WillReturnError(sql.ErrNoRows)

		_, err = NewEventRepository(db).Summary(ctx, "404")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
