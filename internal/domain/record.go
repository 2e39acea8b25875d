package domain

import "context"

// Kind names a local record collection.
type Kind string

const (
	KindEvent      Kind = "event"
	KindTicketType Kind = "ticket_type"
	KindAttendee   Kind = "attendee"
	KindOrder      Kind = "order"
)

// Payload is one decoded external JSON object. Numbers are kept as json.Number.
type Payload = map[string]any

// Record is a locally persisted mirror of an external object.
type Record interface {
	Kind() Kind
	ExternalID() string
	StorageID() int64
	SetStorageID(id int64)
}

// Identity carries the two identifiers every mirrored record has: the storage-assigned
// ID and the external id (EBID). An empty EBID means the record was never round-tripped.
type Identity struct {
	ID   int64  `json:"id"`
	EBID string `json:"eb_id,omitempty"`
}

func (i *Identity) ExternalID() string { return i.EBID }

func (i *Identity) StorageID() int64 { return i.ID }

func (i *Identity) SetStorageID(id int64) { i.ID = id }

// Validator is implemented by records that must satisfy a constraint before being saved.
type Validator interface {
	Validate() error
}

// RecordStore is the persistence port the sync engine writes through.
// Save upserts by external id and assigns the storage identity on first write.
type RecordStore interface {
	FindByExternalID(ctx context.Context, kind Kind, externalID string) (Record, error)
	Save(ctx context.Context, rec Record) error
}

// NewRecord returns an empty record of the given kind pre-seeded with the external id.
func NewRecord(kind Kind, externalID string) (Record, error) {
	switch kind {
	case KindEvent:
		return &Event{Identity: Identity{EBID: externalID}}, nil
	case KindTicketType:
		return &TicketType{Identity: Identity{EBID: externalID}}, nil
	case KindAttendee:
		return &Attendee{Identity: Identity{EBID: externalID}}, nil
	case KindOrder:
		return &Order{Identity: Identity{EBID: externalID}}, nil
	default:
		return nil, ErrUnknownKind
	}
}
