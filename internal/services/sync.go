package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventbritesync/internal/domain"
	"eventbritesync/internal/mapping"
	"eventbritesync/internal/usecase"
)

// Lock keys serializing imports per record collection.
const (
	LockEvents    = "sync:events"
	LockAttendees = "sync:attendees"
)

// Materializer maps external payloads onto stored records.
type Materializer interface {
	Materialize(ctx context.Context, kind domain.Kind, payload any, persist bool) (domain.Record, error)
	MaterializeNamed(ctx context.Context, kind domain.Kind, externalName string, payload any, persist bool) (domain.Record, error)
}

type syncService struct {
	client         domain.EventbriteClient
	store          domain.RecordStore
	queries        domain.EventQueries
	materializer   Materializer
	importer       *usecase.Importer
	locker         domain.Locker
	notifier       domain.ImportReportNotifier
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewSyncService wires the sync entry points. notifier may be nil. A zero timeout
// leaves deadlines to the caller's context and the underlying clients.
func NewSyncService(
	client domain.EventbriteClient,
	store domain.RecordStore,
	queries domain.EventQueries,
	materializer Materializer,
	locker domain.Locker,
	notifier domain.ImportReportNotifier,
	logger *slog.Logger,
	timeout time.Duration,
) domain.SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &syncService{
		client:         client,
		store:          store,
		queries:        queries,
		materializer:   materializer,
		importer:       usecase.NewImporter(materializer, logger),
		locker:         locker,
		notifier:       notifier,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *syncService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.contextTimeout > 0 {
		return context.WithTimeout(ctx, s.contextTimeout)
	}
	return context.WithCancel(ctx)
}

// SyncOwnedEvents imports every event owned by the authenticated user, with their ticket classes.
func (s *syncService) SyncOwnedEvents(ctx context.Context, opts domain.ListOptions) (*domain.ImportReport, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock, err := s.locker.Lock(ctx, LockEvents)
	if err != nil {
		return nil, fmt.Errorf("acquire events lock: %w", err)
	}
	defer unlock()

	user, err := s.client.GetCurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("get current user: %w", err)
	}
	userID, ok := mapping.ExternalIDOf(user["id"])
	if !ok {
		return nil, fmt.Errorf("current user: %w", domain.ErrMissingExternalID)
	}

	opts.Expand = withExpansion(opts.Expand, "ticket_classes")
	report, err := s.importer.ImportAll(ctx, domain.KindEvent, "event", func(ctx context.Context, page int) (domain.Page, error) {
		return s.client.GetUserOwnedEvents(ctx, userID, page, opts)
	})
	s.notify(ctx, "owned events", report)
	return report, err
}

// SyncEvent imports a single event by external id. Any failure is returned.
func (s *syncService) SyncEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock, err := s.locker.Lock(ctx, LockEvents)
	if err != nil {
		return nil, fmt.Errorf("acquire events lock: %w", err)
	}
	defer unlock()

	return s.syncEvent(ctx, eventID)
}

func (s *syncService) syncEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	payload, err := s.client.GetEvent(ctx, eventID, "ticket_classes")
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}
	s.logger.Info("loading event", "event_id", eventID, "item", usecase.ItemLabel(payload))
	rec, err := s.materializer.Materialize(ctx, domain.KindEvent, payload, true)
	if err != nil {
		return nil, err
	}
	event, ok := rec.(*domain.Event)
	if !ok {
		return nil, fmt.Errorf("event %s: unexpected record %T", eventID, rec)
	}
	return event, nil
}

// SyncEventAttendees imports every attendee of one event, with their orders.
// The event itself is imported first when it has never been mirrored.
func (s *syncService) SyncEventAttendees(ctx context.Context, eventID string, opts domain.ListOptions) (*domain.ImportReport, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unlock, err := s.locker.Lock(ctx, LockAttendees)
	if err != nil {
		return nil, fmt.Errorf("acquire attendees lock: %w", err)
	}
	defer unlock()

	if err := s.ensureEvent(ctx, eventID); err != nil {
		return nil, err
	}

	opts.Expand = withExpansion(opts.Expand, "order")
	report, err := s.importer.ImportAll(ctx, domain.KindAttendee, "attendee", func(ctx context.Context, page int) (domain.Page, error) {
		return s.client.GetEventAttendees(ctx, eventID, page, opts)
	})
	s.notify(ctx, fmt.Sprintf("attendees of event %s", eventID), report)
	return report, err
}

func (s *syncService) ensureEvent(ctx context.Context, eventID string) error {
	_, err := s.store.FindByExternalID(ctx, domain.KindEvent, eventID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("find event %s: %w", eventID, err)
	}

	s.logger.Info("event not mirrored yet, importing it first", "event_id", eventID)
	unlock, err := s.locker.Lock(ctx, LockEvents)
	if err != nil {
		return fmt.Errorf("acquire events lock: %w", err)
	}
	defer unlock()
	_, err = s.syncEvent(ctx, eventID)
	return err
}

// EventSummary returns the sales figures of a mirrored event.
func (s *syncService) EventSummary(ctx context.Context, eventID string) (*domain.EventSummary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.queries.EventSummary(ctx, eventID)
}

// ListEvents pages through mirrored events, latest end first.
func (s *syncService) ListEvents(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.queries.ListEvents(ctx, p)
}

func (s *syncService) notify(ctx context.Context, title string, report *domain.ImportReport) {
	if report == nil || report.OK() || s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyImportReport(ctx, title, report); err != nil {
		s.logger.Warn("failed to send import report", "title", title, "error", err)
	}
}

func withExpansion(expand []string, name string) []string {
	for _, e := range expand {
		if e == name {
			return expand
		}
	}
	out := make([]string, 0, len(expand)+1)
	out = append(out, expand...)
	return append(out, name)
}
