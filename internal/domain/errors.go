package domain

import "errors"

// Sentinel errors for the sync engine.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnknownKind       = errors.New("unknown record kind")
	ErrOrphan            = errors.New("record has no parent")
	ErrMissingExternalID = errors.New("payload has no external id")
	ErrMaxDepth          = errors.New("relation nesting too deep")
	ErrInvalidStatus     = errors.New("invalid event status")
	ErrUpstream          = errors.New("eventbrite api error")
)
