package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"eventbritesync/internal/domain"
	"eventbritesync/internal/mapping"
	"eventbritesync/internal/materializer"
	"eventbritesync/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeEventbrite serves canned payloads.
type fakeEventbrite struct {
	user        domain.Payload
	userErr     error
	events      map[string]domain.Payload
	ownedPages  []domain.Page
	attendees   map[string][]domain.Page
	lastOpts    domain.ListOptions
	lastExpand  []string
	getEventHit int
}

func (f *fakeEventbrite) GetCurrentUser(context.Context) (domain.Payload, error) {
	return f.user, f.userErr
}

func (f *fakeEventbrite) GetUserOwnedEvents(_ context.Context, userID string, page int, opts domain.ListOptions) (domain.Page, error) {
	f.lastOpts = opts
	if userID != "u1" {
		return domain.Page{}, fmt.Errorf("unexpected user %q", userID)
	}
	return f.ownedPages[page-1], nil
}

func (f *fakeEventbrite) GetEvent(_ context.Context, eventID string, expand ...string) (domain.Payload, error) {
	f.getEventHit++
	f.lastExpand = expand
	e, ok := f.events[eventID]
	if !ok {
		return nil, fmt.Errorf("eventbrite api returned status 404: %w", domain.ErrNotFound)
	}
	return e, nil
}

func (f *fakeEventbrite) GetEventAttendees(_ context.Context, eventID string, page int, opts domain.ListOptions) (domain.Page, error) {
	f.lastOpts = opts
	pages, ok := f.attendees[eventID]
	if !ok {
		return domain.Page{}, fmt.Errorf("no attendees for %s: %w", eventID, domain.ErrUpstream)
	}
	return pages[page-1], nil
}

// recordingLocker grants every lock and remembers the keys.
type recordingLocker struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (l *recordingLocker) Lock(_ context.Context, key string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func() {}, nil
}

type fakeNotifier struct {
	titles []string
	err    error
}

func (n *fakeNotifier) NotifyImportReport(_ context.Context, title string, _ *domain.ImportReport) error {
	n.titles = append(n.titles, title)
	return n.err
}

func event(id, name string) domain.Payload {
	return domain.Payload{
		"id":     id,
		"name":   map[string]any{"text": name, "html": name},
		"status": "live",
		"end":    map[string]any{"timezone": "UTC", "local": "2024-06-01T23:00:00"},
		"ticket_classes": []any{
			map[string]any{
				"id":            id + "-ga",
				"name":          "GA",
				"cost":          map[string]any{"currency": "USD", "value": json.Number("1000")},
				"quantity_sold": json.Number("2"),
				"event_id":      id,
			},
		},
	}
}

func attendee(id, eventID string, grossMinor string, refunded bool) domain.Payload {
	return domain.Payload{
		"id":       id,
		"event_id": eventID,
		"refunded": refunded,
		"profile":  map[string]any{"name": "Guest " + id, "email": id + "@example.com"},
		"costs":    map[string]any{"gross": map[string]any{"currency": "USD", "value": grossMinor}},
		"order":    map[string]any{"id": "o-" + id, "created": "2024-05-01T10:00:00Z"},
	}
}

func onePage(items ...domain.Payload) []domain.Page {
	return []domain.Page{{Items: items, Pagination: domain.Pagination{PageNumber: 1, PageCount: 1}}}
}

type fixture struct {
	client   *fakeEventbrite
	store    *memory.Store
	locker   *recordingLocker
	notifier *fakeNotifier
	svc      domain.SyncService
}

func newFixture(client *fakeEventbrite) *fixture {
	store := memory.NewStore()
	m := materializer.New(mapping.EventbriteRegistry(), store, testLogger)
	f := &fixture{client: client, store: store, locker: &recordingLocker{}, notifier: &fakeNotifier{}}
	f.svc = NewSyncService(client, store, store, m, f.locker, f.notifier, testLogger, time.Minute)
	return f
}

func TestSyncOwnedEvents(t *testing.T) {
	broken := event("3", "Broken")
	broken["status"] = "sold_out"
	f := newFixture(&fakeEventbrite{
		user: domain.Payload{"id": "u1"},
		ownedPages: []domain.Page{
			{Items: []domain.Payload{event("1", "One"), broken}, Pagination: domain.Pagination{PageNumber: 1, PageCount: 2}},
			{Items: []domain.Payload{event("2", "Two")}, Pagination: domain.Pagination{PageNumber: 2, PageCount: 2}},
		},
	})

	report, err := f.svc.SyncOwnedEvents(context.Background(), domain.ListOptions{Status: "live"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pages)
	assert.Len(t, report.Succeeded, 2)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "Broken", report.Failed[0].Label)

	assert.Equal(t, "live", f.client.lastOpts.Status)
	assert.Contains(t, f.client.lastOpts.Expand, "ticket_classes")
	assert.Equal(t, []string{LockEvents}, f.locker.keys)
	assert.Equal(t, 2, f.store.Count(domain.KindEvent))
	assert.Equal(t, 2, f.store.Count(domain.KindTicketType))
	assert.Equal(t, []string{"owned events"}, f.notifier.titles)
}

func TestSyncOwnedEvents_NoNotificationWhenClean(t *testing.T) {
	f := newFixture(&fakeEventbrite{
		user:       domain.Payload{"id": "u1"},
		ownedPages: onePage(),
	})

	report, err := f.svc.SyncOwnedEvents(context.Background(), domain.ListOptions{})
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Empty(t, f.notifier.titles)
}

func TestSyncOwnedEvents_Errors(t *testing.T) {
	t.Run("current user", func(t *testing.T) {
		f := newFixture(&fakeEventbrite{userErr: fmt.Errorf("401: %w", domain.ErrUpstream)})
		_, err := f.svc.SyncOwnedEvents(context.Background(), domain.ListOptions{})
		assert.ErrorIs(t, err, domain.ErrUpstream)
	})
	t.Run("user without id", func(t *testing.T) {
		f := newFixture(&fakeEventbrite{user: domain.Payload{"name": "x"}})
		_, err := f.svc.SyncOwnedEvents(context.Background(), domain.ListOptions{})
		assert.ErrorIs(t, err, domain.ErrMissingExternalID)
	})
	t.Run("lock", func(t *testing.T) {
		f := newFixture(&fakeEventbrite{})
		f.locker.err = context.DeadlineExceeded
		_, err := f.svc.SyncOwnedEvents(context.Background(), domain.ListOptions{})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSyncEvent(t *testing.T) {
	f := newFixture(&fakeEventbrite{events: map[string]domain.Payload{"7": event("7", "Seven")}})

	e, err := f.svc.SyncEvent(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Seven", e.Name)
	assert.NotZero(t, e.ID)
	require.Len(t, e.Tickets, 1)
	assert.Equal(t, e.ID, e.Tickets[0].EventID)
	assert.Equal(t, []string{"ticket_classes"}, f.client.lastExpand)

	again, err := f.svc.SyncEvent(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, e.ID, again.ID)
	assert.Equal(t, 1, f.store.Count(domain.KindTicketType))
}

func TestSyncEvent_NotFound(t *testing.T) {
	f := newFixture(&fakeEventbrite{})
	_, err := f.svc.SyncEvent(context.Background(), "404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncEventAttendees(t *testing.T) {
	f := newFixture(&fakeEventbrite{
		events: map[string]domain.Payload{"7": event("7", "Seven")},
		attendees: map[string][]domain.Page{
			"7": onePage(
				attendee("a1", "7", "1000", false),
				attendee("a2", "7", "1000", true),
				attendee("a3", "999", "1000", false),
			),
		},
	})

	report, err := f.svc.SyncEventAttendees(context.Background(), "7", domain.ListOptions{Status: "attending"})
	require.NoError(t, err)

	// the event was not mirrored yet, so it was imported first
	assert.Equal(t, 1, f.client.getEventHit)
	assert.Equal(t, []string{LockAttendees, LockEvents}, f.locker.keys)
	assert.Contains(t, f.client.lastOpts.Expand, "order")
	assert.Equal(t, "attending", f.client.lastOpts.Status)

	assert.Len(t, report.Succeeded, 2)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "a3", report.Failed[0].ExternalID)
	assert.ErrorIs(t, report.Failed[0].Err, domain.ErrNotFound)
	assert.Equal(t, 2, f.store.Count(domain.KindOrder))
	assert.Equal(t, []string{"attendees of event 7"}, f.notifier.titles)

	summary, err := f.svc.EventSummary(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.QuantitySold)
	assert.Equal(t, 1, summary.QuantityRefunded)
	assert.Equal(t, "10.00 USD", summary.TicketSales.String())
}

func TestSyncEventAttendees_ExistingEventIsNotRefetched(t *testing.T) {
	f := newFixture(&fakeEventbrite{
		events:    map[string]domain.Payload{"7": event("7", "Seven")},
		attendees: map[string][]domain.Page{"7": onePage(attendee("a1", "7", "500", false))},
	})
	_, err := f.svc.SyncEvent(context.Background(), "7")
	require.NoError(t, err)
	f.locker.keys = nil

	report, err := f.svc.SyncEventAttendees(context.Background(), "7", domain.ListOptions{})
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 1, f.client.getEventHit)
	assert.Equal(t, []string{LockAttendees}, f.locker.keys)
}

func TestSyncEventAttendees_UnknownEvent(t *testing.T) {
	f := newFixture(&fakeEventbrite{})
	report, err := f.svc.SyncEventAttendees(context.Background(), "404", domain.ListOptions{})
	assert.Nil(t, report)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncEventAttendees_NotifierErrorIsLogged(t *testing.T) {
	f := newFixture(&fakeEventbrite{
		events:    map[string]domain.Payload{"7": event("7", "Seven")},
		attendees: map[string][]domain.Page{"7": onePage(attendee("a3", "999", "1000", false))},
	})
	f.notifier.err = errors.New("ses down")

	report, err := f.svc.SyncEventAttendees(context.Background(), "7", domain.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, report.Failed, 1)
}

func TestListEvents(t *testing.T) {
	f := newFixture(&fakeEventbrite{events: map[string]domain.Payload{
		"1": event("1", "One"),
		"2": event("2", "Two"),
	}})
	for _, id := range []string{"1", "2"} {
		_, err := f.svc.SyncEvent(context.Background(), id)
		require.NoError(t, err)
	}

	events, total, err := f.svc.ListEvents(context.Background(), domain.PaginationParams{Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, events, 1)
}

func TestWithExpansion(t *testing.T) {
	assert.Equal(t, []string{"order"}, withExpansion(nil, "order"))
	assert.Equal(t, []string{"order"}, withExpansion([]string{"order"}, "order"))
	assert.Equal(t, []string{"venue", "order"}, withExpansion([]string{"venue"}, "order"))
}
