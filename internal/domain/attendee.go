package domain

import "fmt"

// Attendee is a mirrored Eventbrite attendee. It belongs to one Event and carries
// a reference to the Order it was bought with.
// swagger:model Attendee
type Attendee struct {
	Identity
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	CellPhone string `json:"cell_phone,omitempty"`
	HomePhone string `json:"home_phone,omitempty"`
	WorkPhone string `json:"work_phone,omitempty"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
	Gross     Money  `json:"gross"`
	Fee       Money  `json:"fee"`
	Refunded  bool   `json:"refunded"`
	Canceled  bool   `json:"canceled"`
	EventID   int64  `json:"event_id"`
	OrderID   *int64 `json:"order_id,omitempty"`

	Order *Order `json:"order,omitempty"`
}

func (a *Attendee) Kind() Kind { return KindAttendee }

// SetOrder points the attendee at a stored order.
func (a *Attendee) SetOrder(o *Order) {
	id := o.ID
	a.OrderID = &id
	a.Order = o
}

// SetEvent points the attendee at a stored event.
func (a *Attendee) SetEvent(e *Event) {
	a.EventID = e.ID
}

// Validate rejects an attendee that is not attached to a stored event.
func (a *Attendee) Validate() error {
	if a.EventID == 0 {
		return fmt.Errorf("attendee %s: %w", a.EBID, ErrOrphan)
	}
	return nil
}
