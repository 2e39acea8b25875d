// Package memory is an in-process RecordStore used for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eventbritesync/internal/domain"
)

// Store keeps records per kind, uniquely keyed by external id.
// Records are copied on the way in and out, so callers never share state with the store.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[domain.Kind]map[int64]domain.Record
	byEBID map[domain.Kind]map[string]int64
	now    func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		nextID: 1,
		byID:   make(map[domain.Kind]map[int64]domain.Record),
		byEBID: make(map[domain.Kind]map[string]int64),
		now:    time.Now,
	}
}

// FindByExternalID returns a copy of the record with the given external id.
func (s *Store) FindByExternalID(ctx context.Context, kind domain.Kind, externalID string) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEBID[kind][externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(s.byID[kind][id]), nil
}

// Save upserts rec by external id and assigns its storage identity.
func (s *Store) Save(ctx context.Context, rec domain.Record) error {
	if v, ok := rec.(domain.Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	kind := rec.Kind()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byID[kind] == nil {
		s.byID[kind] = make(map[int64]domain.Record)
		s.byEBID[kind] = make(map[string]int64)
	}

	id := rec.StorageID()
	if ebid := rec.ExternalID(); ebid != "" {
		if existing, ok := s.byEBID[kind][ebid]; ok {
			if id != 0 && id != existing {
				return fmt.Errorf("%s %s: external id already used by record %d", kind, ebid, existing)
			}
			id = existing
		}
	}
	if id == 0 {
		id = s.nextID
		s.nextID++
	}
	rec.SetStorageID(id)
	if e, ok := rec.(*domain.Event); ok {
		now := s.now()
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		e.UpdatedAt = now
	}

	s.byID[kind][id] = clone(rec)
	if ebid := rec.ExternalID(); ebid != "" {
		s.byEBID[kind][ebid] = id
	}
	return nil
}

// Count returns the number of stored records of kind.
func (s *Store) Count(kind domain.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID[kind])
}

// EventSummary aggregates ticket and attendee figures for the event with external id ebID.
func (s *Store) EventSummary(ctx context.Context, ebID string) (*domain.EventSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEBID[domain.KindEvent][ebID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e := s.byID[domain.KindEvent][id].(*domain.Event)
	sum := &domain.EventSummary{
		EventID: e.ID,
		EBID:    e.EBID,
		Name:    e.Name,
	}
	for _, r := range s.byID[domain.KindTicketType] {
		if t := r.(*domain.TicketType); t.EventID == id {
			sum.QuantitySold += t.QuantitySold
		}
	}
	for _, r := range s.byID[domain.KindAttendee] {
		a := r.(*domain.Attendee)
		if a.EventID != id {
			continue
		}
		if a.Refunded {
			sum.QuantityRefunded++
		} else {
			total, err := sum.TicketSales.Add(a.Gross)
			if err != nil {
				return nil, err
			}
			sum.TicketSales = total
		}
		if a.Canceled {
			sum.QuantityCanceled++
		}
	}
	if sum.TicketSales.Currency == "" {
		sum.TicketSales.Currency = domain.DefaultCurrency
	}
	return sum, nil
}

// ListEvents returns stored events ordered by end time, latest first.
func (s *Store) ListEvents(ctx context.Context, p domain.PaginationParams) ([]*domain.Event, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*domain.Event, 0, len(s.byID[domain.KindEvent]))
	for _, r := range s.byID[domain.KindEvent] {
		all = append(all, clone(r).(*domain.Event))
	}
	domain.SortForListing(all)
	total := len(all)
	start, end := p.Window(total)
	return all[start:end], total, nil
}

func clone(rec domain.Record) domain.Record {
	switch r := rec.(type) {
	case *domain.Event:
		cp := *r
		cp.Tickets, cp.Attendees = nil, nil
		return &cp
	case *domain.TicketType:
		cp := *r
		return &cp
	case *domain.Attendee:
		cp := *r
		cp.Order = nil
		if r.OrderID != nil {
			id := *r.OrderID
			cp.OrderID = &id
		}
		return &cp
	case *domain.Order:
		cp := *r
		return &cp
	}
	return rec
}
