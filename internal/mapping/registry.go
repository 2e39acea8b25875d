package mapping

import (
	"fmt"
	"time"

	"eventbritesync/internal/domain"
)

// Registry is the immutable mapping configuration shared by the translator and materializer.
type Registry struct {
	keys    *KeyMap
	schemas map[domain.Kind]*Schema
	flatten map[string][]string
}

// NewRegistry builds a Registry. flatten lists, per external entity name, the sub-objects
// whose fields are lifted into the parent payload before translation.
func NewRegistry(keys *KeyMap, flatten map[string][]string, schemas ...*Schema) *Registry {
	r := &Registry{
		keys:    keys,
		schemas: make(map[domain.Kind]*Schema, len(schemas)),
		flatten: make(map[string][]string, len(flatten)),
	}
	for _, s := range schemas {
		r.schemas[s.Kind] = s
	}
	for name, keys := range flatten {
		r.flatten[name] = append([]string(nil), keys...)
	}
	return r
}

// Schema returns the schema registered for kind.
func (r *Registry) Schema(kind domain.Kind) (*Schema, error) {
	s, ok := r.schemas[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownKind, kind)
	}
	return s, nil
}

// LocalKey translates an external key for records of schema s.
func (r *Registry) LocalKey(s *Schema, external string) string {
	if local, ok := s.Aliases[external]; ok {
		return local
	}
	return r.keys.ToLocalKey(external)
}

// Flatten returns the sub-object keys to unpack for an external entity name.
func (r *Registry) Flatten(externalName string) []string {
	return r.flatten[externalName]
}

// EventbriteRegistry returns the mapping configuration for the Eventbrite v3 API.
func EventbriteRegistry() *Registry {
	return NewRegistry(DefaultKeyMap(),
		map[string][]string{
			"attendee": {"profile", "costs"},
		},
		eventSchema(), ticketTypeSchema(), orderSchema(), attendeeSchema(),
	)
}

func eventSchema() *Schema {
	return &Schema{
		Kind:         domain.KindEvent,
		ExternalName: "event",
		PersistFirst: true,
		Fields: fieldSet(
			StringField("eb_id", func(e *domain.Event) *string { return &e.EBID }),
			StringField("eb_url", func(e *domain.Event) *string { return &e.EBURL }),
			StringField("name", func(e *domain.Event) *string { return &e.Name }),
			StringField("description", func(e *domain.Event) *string { return &e.Description }),
			TimeField("start", func(e *domain.Event) *time.Time { return &e.Start }),
			TimeField("end", func(e *domain.Event) *time.Time { return &e.End }),
			IntField("capacity", func(e *domain.Event) *int { return &e.Capacity }),
			EventStatusField("status", func(e *domain.Event) *domain.EventStatus { return &e.Status }),
			ToManyField("tickets", domain.KindTicketType, (*domain.Event).AddTicket),
			ToManyField("attendees", domain.KindAttendee, (*domain.Event).AddAttendee),
		),
	}
}

func ticketTypeSchema() *Schema {
	return &Schema{
		Kind:         domain.KindTicketType,
		ExternalName: "ticket_class",
		Aliases:      map[string]string{"event_id": "event"},
		Fields: fieldSet(
			StringField("eb_id", func(t *domain.TicketType) *string { return &t.EBID }),
			StringField("name", func(t *domain.TicketType) *string { return &t.Name }),
			StringField("description", func(t *domain.TicketType) *string { return &t.Description }),
			MoneyField("cost", func(t *domain.TicketType) *domain.Money { return &t.Cost }),
			MoneyField("fee", func(t *domain.TicketType) *domain.Money { return &t.Fee }),
			BoolField("donation", func(t *domain.TicketType) *bool { return &t.Donation }),
			BoolField("free", func(t *domain.TicketType) *bool { return &t.Free }),
			IntField("quantity_sold", func(t *domain.TicketType) *int { return &t.QuantitySold }),
			ToOneField("event", domain.KindEvent, (*domain.TicketType).SetEvent),
		),
	}
}

func orderSchema() *Schema {
	return &Schema{
		Kind:         domain.KindOrder,
		ExternalName: "order",
		Fields: fieldSet(
			StringField("eb_id", func(o *domain.Order) *string { return &o.EBID }),
			TimeField("created", func(o *domain.Order) *time.Time { return &o.Created }),
			TimeField("changed", func(o *domain.Order) *time.Time { return &o.Changed }),
		),
	}
}

func attendeeSchema() *Schema {
	return &Schema{
		Kind:         domain.KindAttendee,
		ExternalName: "attendee",
		Aliases: map[string]string{
			"eventbrite_fee": "fee",
			"event_id":       "event",
		},
		Fields: fieldSet(
			StringField("eb_id", func(a *domain.Attendee) *string { return &a.EBID }),
			StringField("name", func(a *domain.Attendee) *string { return &a.Name }),
			StringField("first_name", func(a *domain.Attendee) *string { return &a.FirstName }),
			StringField("last_name", func(a *domain.Attendee) *string { return &a.LastName }),
			StringField("email", func(a *domain.Attendee) *string { return &a.Email }),
			StringField("cell_phone", func(a *domain.Attendee) *string { return &a.CellPhone }),
			StringField("home_phone", func(a *domain.Attendee) *string { return &a.HomePhone }),
			StringField("work_phone", func(a *domain.Attendee) *string { return &a.WorkPhone }),
			IntField("quantity", func(a *domain.Attendee) *int { return &a.Quantity }),
			StringField("status", func(a *domain.Attendee) *string { return &a.Status }),
			MoneyField("gross", func(a *domain.Attendee) *domain.Money { return &a.Gross }),
			MoneyField("fee", func(a *domain.Attendee) *domain.Money { return &a.Fee }),
			BoolField("refunded", func(a *domain.Attendee) *bool { return &a.Refunded }),
			BoolField("canceled", func(a *domain.Attendee) *bool { return &a.Canceled }),
			ToOneField("event", domain.KindEvent, (*domain.Attendee).SetEvent),
			ToOneField("order", domain.KindOrder, (*domain.Attendee).SetOrder),
		),
	}
}
