package domain

import (
	"context"
	"fmt"
	"time"
)

// EventStatus is the lifecycle state reported by Eventbrite.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusLive      EventStatus = "live"
	EventStatusCanceled  EventStatus = "canceled"
	EventStatusStarted   EventStatus = "started"
	EventStatusEnded     EventStatus = "ended"
	EventStatusCompleted EventStatus = "completed"
)

// ParseEventStatus validates s against the known statuses.
func ParseEventStatus(s string) (EventStatus, error) {
	switch st := EventStatus(s); st {
	case EventStatusDraft, EventStatusLive, EventStatusCanceled, EventStatusStarted, EventStatusEnded, EventStatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Event is a mirrored Eventbrite event.
// swagger:model Event
type Event struct {
	Identity
	EBURL       string      `json:"eb_url,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Capacity    int         `json:"capacity"`
	Status      EventStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// Populated while materializing; not loaded by stores.
	Tickets   []*TicketType `json:"tickets,omitempty"`
	Attendees []*Attendee   `json:"attendees,omitempty"`
}

func (e *Event) Kind() Kind { return KindEvent }

// AddTicket attaches t to the event's ticket collection and points its back-reference at e.
func (e *Event) AddTicket(t *TicketType) {
	t.EventID = e.ID
	e.Tickets = append(e.Tickets, t)
}

// AddAttendee attaches a to the event's attendee collection and points its back-reference at e.
func (e *Event) AddAttendee(a *Attendee) {
	a.EventID = e.ID
	e.Attendees = append(e.Attendees, a)
}

// EventSummary aggregates sales figures over an event's ticket types and attendees.
// swagger:model EventSummary
type EventSummary struct {
	EventID          int64  `json:"event_id"`
	EBID             string `json:"eb_id"`
	Name             string `json:"name"`
	QuantitySold     int    `json:"quantity_sold"`
	QuantityRefunded int    `json:"quantity_refunded"`
	QuantityCanceled int    `json:"quantity_canceled"`
	TicketSales      Money  `json:"ticket_sales"`
}

// EventQueries is the read side over mirrored events.
type EventQueries interface {
	EventSummary(ctx context.Context, ebID string) (*EventSummary, error)
	ListEvents(ctx context.Context, p PaginationParams) ([]*Event, int, error)
}
