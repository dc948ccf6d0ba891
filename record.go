package syncbox

import (
	"encoding/json"
	"time"
)

// Record is a stored outbox record fetched for processing.
//
// Records are immutable except for Status, Attempts, ErrorKind, LastError,
// UpdatedAt and SyncedAt; the Dispatcher owns those transitions. Records are
// never deleted by the sync core, cleanup is an external concern.
type Record struct {
	ID         string
	EntityType string
	Action     Action
	EntityID   string
	Payload    json.RawMessage
	Status     Status
	Attempts   int
	ErrorKind  Kind
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	SyncedAt   time.Time
}

// Entry describes a new outbox record to be persisted.
type Entry struct {
	// ID is optional, if empty, the store assigns a UUID.
	ID string
	// EntityType tags the target remote collection (e.g., "stock_movement").
	EntityType string
	// Action is the remote mutation to replay: upsert or delete.
	Action Action
	// EntityID identifies the mutated entity instance.
	EntityID string
	// Payload is the entity snapshot at enqueue time, stored as JSON.
	Payload json.RawMessage
}

// Validate checks required fields and JSON validity of the payload.
func (e Entry) Validate() error {
	return ValidateEntry(e, true)
}

// ValidateEntry validates an entry with optional JSON validation for the payload.
func ValidateEntry(entry Entry, validateJSON bool) error {
	if entry.EntityType == "" {
		return ErrEntityTypeRequired
	}
	if entry.EntityID == "" {
		return ErrEntityIDRequired
	}
	switch entry.Action {
	case ActionUpsert:
		if len(entry.Payload) == 0 {
			return ErrPayloadRequired
		}
		if validateJSON && !json.Valid(entry.Payload) {
			return ErrInvalidPayload
		}
	case ActionDelete:
		if validateJSON && len(entry.Payload) > 0 && !json.Valid(entry.Payload) {
			return ErrInvalidPayload
		}
	default:
		return ErrInvalidAction
	}

	return nil
}
