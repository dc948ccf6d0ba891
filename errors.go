package syncbox

import "errors"

var (
	// ErrEntityTypeRequired is returned when Entry.EntityType is empty.
	ErrEntityTypeRequired = errors.New("syncbox entity type is required")
	// ErrEntityIDRequired is returned when Entry.EntityID is empty.
	ErrEntityIDRequired = errors.New("syncbox entity id is required")
	// ErrPayloadRequired is returned when an upsert Entry has no payload.
	ErrPayloadRequired = errors.New("syncbox payload is required")
	// ErrInvalidPayload is returned when Entry.Payload is not valid JSON.
	ErrInvalidPayload = errors.New("syncbox payload must be valid JSON")
	// ErrInvalidAction is returned when Entry.Action is not a known action.
	ErrInvalidAction = errors.New("syncbox action must be UPSERT or DELETE")
	// ErrInvalidBatchSize indicates that the requested batch size is not positive.
	ErrInvalidBatchSize = errors.New("syncbox batch size must be positive")
	// ErrNoMapping is returned when a record's entity type has no registered mapping.
	ErrNoMapping = errors.New("syncbox no mapping for entity type")
	// ErrNoVariants is returned when a mapping declares no payload variants.
	ErrNoVariants = errors.New("syncbox mapping has no payload variants")
	// ErrInvalidQuantity is returned when a movement carries a negative quantity.
	ErrInvalidQuantity = errors.New("syncbox movement quantity must not be negative")
	// ErrUnknownMovementKind is returned when a movement kind is outside the known set.
	ErrUnknownMovementKind = errors.New("syncbox unknown movement kind")
)
