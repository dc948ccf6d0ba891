package syncbox

import (
	"context"
	"fmt"
)

// Remote is the contract the Remote Applier consumes. Each call applies or
// removes a single row; the remote store is never assumed to support
// transactions spanning multiple records.
type Remote interface {
	// Upsert writes a row into a collection, resolving conflicts on conflictKey.
	Upsert(ctx context.Context, collection string, row map[string]any, conflictKey string) error
	// Delete removes rows from a collection where column equals value.
	Delete(ctx context.Context, collection, column, value string) error
}

// RemoteError is a structured failure reported by the remote store. It carries
// enough shape (machine code plus free text) for Classify to place it in the
// error taxonomy.
type RemoteError struct {
	Message string
	Code    string
	Details string
	Hint    string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e.Code == "" {
		return e.Message
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
