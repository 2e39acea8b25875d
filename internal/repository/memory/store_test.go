package memory

import (
	"context"
	"testing"
	"time"

	"eventbritesync/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd(s string) domain.Money {
	return domain.NewMoney(decimal.RequireFromString(s), "USD")
}

func TestStore_SaveAndFind(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	e := &domain.Event{Identity: domain.Identity{EBID: "100"}, Name: "Gala"}
	require.NoError(t, s.Save(ctx, e))
	assert.Equal(t, int64(1), e.ID)
	assert.False(t, e.CreatedAt.IsZero())

	got, err := s.FindByExternalID(ctx, domain.KindEvent, "100")
	require.NoError(t, err)
	assert.Equal(t, "Gala", got.(*domain.Event).Name)

	// returned records are copies
	got.(*domain.Event).Name = "changed"
	again, _ := s.FindByExternalID(ctx, domain.KindEvent, "100")
	assert.Equal(t, "Gala", again.(*domain.Event).Name)

	_, err = s.FindByExternalID(ctx, domain.KindEvent, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_UpsertByExternalID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }

	require.NoError(t, s.Save(ctx, &domain.Event{Identity: domain.Identity{EBID: "100"}, Name: "v1"}))
	s.now = func() time.Time { return created.Add(time.Hour) }

	fresh := &domain.Event{Identity: domain.Identity{EBID: "100"}, Name: "v2"}
	require.NoError(t, s.Save(ctx, fresh))
	assert.Equal(t, int64(1), fresh.ID)
	assert.Equal(t, 1, s.Count(domain.KindEvent))

	stored, _ := s.FindByExternalID(ctx, domain.KindEvent, "100")
	assert.Equal(t, "v2", stored.(*domain.Event).Name)
	assert.Equal(t, created.Add(time.Hour), stored.(*domain.Event).UpdatedAt)
}

func TestStore_RejectsConflictsAndOrphans(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, &domain.Event{Identity: domain.Identity{EBID: "100"}}))
	require.NoError(t, s.Save(ctx, &domain.Event{Identity: domain.Identity{EBID: "200"}}))

	err := s.Save(ctx, &domain.Event{Identity: domain.Identity{ID: 2, EBID: "100"}})
	assert.Error(t, err)

	err = s.Save(ctx, &domain.TicketType{Identity: domain.Identity{EBID: "t1"}})
	assert.ErrorIs(t, err, domain.ErrOrphan)
	assert.Equal(t, 0, s.Count(domain.KindTicketType))
}

func TestStore_EventSummary(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	e := &domain.Event{Identity: domain.Identity{EBID: "100"}, Name: "Gala"}
	require.NoError(t, s.Save(ctx, e))
	other := &domain.Event{Identity: domain.Identity{EBID: "200"}}
	require.NoError(t, s.Save(ctx, other))

	for _, tt := range []*domain.TicketType{
		{Identity: domain.Identity{EBID: "t1"}, QuantitySold: 3, EventID: e.ID},
		{Identity: domain.Identity{EBID: "t2"}, QuantitySold: 2, EventID: e.ID},
		{Identity: domain.Identity{EBID: "t3"}, QuantitySold: 9, EventID: other.ID},
	} {
		require.NoError(t, s.Save(ctx, tt))
	}
	for _, a := range []*domain.Attendee{
		{Identity: domain.Identity{EBID: "a1"}, EventID: e.ID, Gross: usd("16.50")},
		{Identity: domain.Identity{EBID: "a2"}, EventID: e.ID, Gross: usd("16.50"), Canceled: true},
		{Identity: domain.Identity{EBID: "a3"}, EventID: e.ID, Gross: usd("16.50"), Refunded: true},
		{Identity: domain.Identity{EBID: "a4"}, EventID: other.ID, Gross: usd("99")},
	} {
		require.NoError(t, s.Save(ctx, a))
	}

	sum, err := s.EventSummary(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, e.ID, sum.EventID)
	assert.Equal(t, 5, sum.QuantitySold)
	assert.Equal(t, 1, sum.QuantityRefunded)
	assert.Equal(t, 1, sum.QuantityCanceled)
	assert.Equal(t, "33.00 USD", sum.TicketSales.String())

	empty, err := s.EventSummary(ctx, "200")
	require.NoError(t, err)
	assert.Equal(t, "USD", empty.TicketSales.Currency)

	_, err = s.EventSummary(ctx, "300")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_EventSummaryMixedCurrencies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	e := &domain.Event{Identity: domain.Identity{EBID: "100"}}
	require.NoError(t, s.Save(ctx, e))
	require.NoError(t, s.Save(ctx, &domain.Attendee{Identity: domain.Identity{EBID: "a1"}, EventID: e.ID, Gross: usd("1")}))
	require.NoError(t, s.Save(ctx, &domain.Attendee{Identity: domain.Identity{EBID: "a2"}, EventID: e.ID, Gross: domain.NewMoney(decimal.NewFromInt(1), "EUR")}))

	_, err := s.EventSummary(ctx, "100")
	assert.Error(t, err)
}

func TestStore_ListEvents(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Save(ctx, &domain.Event{Identity: domain.Identity{EBID: id}, End: base.AddDate(0, 0, i)}))
	}

	tests := []struct {
		name string
		p    domain.PaginationParams
		want []string
	}{
		{"first page", domain.PaginationParams{Page: 1, PageSize: 2}, []string{"c", "b"}},
		{"second page", domain.PaginationParams{Page: 2, PageSize: 2}, []string{"a"}},
		{"past the end", domain.PaginationParams{Page: 5, PageSize: 2}, []string{}},
		{"zero size lists all", domain.PaginationParams{}, []string{"c", "b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, total, err := s.ListEvents(ctx, tt.p)
			require.NoError(t, err)
			assert.Equal(t, 3, total)
			got := make([]string, 0, len(events))
			for _, e := range events {
				got = append(got, e.EBID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
