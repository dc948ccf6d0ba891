package syncbox

// Status represents the lifecycle state of an outbox record.
type Status int16

const (
	// StatusPending indicates the record is waiting for its first attempt.
	StatusPending Status = 0
	// StatusSent indicates the record was applied to the remote store.
	StatusSent Status = 1
	// StatusFailed indicates the last attempt failed; the record becomes
	// eligible again once its backoff window elapses.
	StatusFailed Status = -1
)

// Action identifies the remote mutation an outbox record carries.
type Action string

const (
	// ActionUpsert replays the payload as an insert-or-update.
	ActionUpsert Action = "UPSERT"
	// ActionDelete removes the entity (and its child rows) by id.
	ActionDelete Action = "DELETE"
)
