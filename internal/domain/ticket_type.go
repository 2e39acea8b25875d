package domain

import "fmt"

// TicketType is a mirrored Eventbrite ticket class. It always belongs to one Event.
type TicketType struct {
	Identity
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Cost         Money  `json:"cost"`
	Fee          Money  `json:"fee"`
	Donation     bool   `json:"donation"`
	Free         bool   `json:"free"`
	QuantitySold int    `json:"quantity_sold"`
	EventID      int64  `json:"event_id"`
}

func (t *TicketType) Kind() Kind { return KindTicketType }

func (t *TicketType) String() string { return t.Name }

// Validate rejects a ticket type that is not attached to a stored event.
func (t *TicketType) Validate() error {
	if t.EventID == 0 {
		return fmt.Errorf("ticket type %s: %w", t.EBID, ErrOrphan)
	}
	return nil
}

// SetEvent points the ticket type at a stored event.
func (t *TicketType) SetEvent(e *Event) {
	t.EventID = e.ID
}
