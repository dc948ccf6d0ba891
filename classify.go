package syncbox

import (
	"errors"
	"strings"
)

// Kind places a remote failure into the closed taxonomy that drives retry
// policy and the Remote Applier's variant fallback.
type Kind int16

const (
	// KindOther is any failure outside the recognized categories; it is a hard
	// failure for the attempt and retried with exponential backoff.
	KindOther Kind = iota
	// KindSchemaMismatch means the remote does not recognize a column or table
	// the payload shape expects. Retried indefinitely at a fixed cadence.
	KindSchemaMismatch
	// KindNotNullViolation means a required remote field was absent from the
	// attempted payload shape.
	KindNotNullViolation
	// KindForeignKeyViolation means a referenced row does not exist yet,
	// typically because a dependent entity synced before its dependency.
	KindForeignKeyViolation
)

// String returns a stable label for persisting and logging the kind.
func (k Kind) String() string {
	switch k {
	case KindSchemaMismatch:
		return "SCHEMA_MISMATCH"
	case KindNotNullViolation:
		return "NOT_NULL_VIOLATION"
	case KindForeignKeyViolation:
		return "FOREIGN_KEY_VIOLATION"
	default:
		return "OTHER"
	}
}

// ParseKind maps a persisted label back to its Kind. Unknown labels collapse
// to KindOther so stale rows keep a valid retry policy.
func ParseKind(s string) Kind {
	switch s {
	case "SCHEMA_MISMATCH":
		return KindSchemaMismatch
	case "NOT_NULL_VIOLATION":
		return KindNotNullViolation
	case "FOREIGN_KEY_VIOLATION":
		return KindForeignKeyViolation
	default:
		return KindOther
	}
}

// Postgres error codes surfaced by PostgREST-style remotes.
const (
	codeUndefinedColumn  = "42703"
	codeUndefinedTable   = "42P01"
	codeNotNullViolation = "23502"
	codeForeignKey       = "23503"
)

// Classify maps a remote failure into the taxonomy. All code and message
// sniffing is isolated here; callers only ever branch on the returned Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return KindOther
	}

	switch remoteErr.Code {
	case codeUndefinedColumn, codeUndefinedTable:
		return KindSchemaMismatch
	case codeNotNullViolation:
		return KindNotNullViolation
	case codeForeignKey:
		return KindForeignKeyViolation
	}
	// PostgREST schema-cache misses: PGRST202 (function), PGRST204 (column),
	// PGRST205 (table).
	if strings.HasPrefix(remoteErr.Code, "PGRST2") {
		return KindSchemaMismatch
	}

	msg := strings.ToLower(remoteErr.Message)
	switch {
	case strings.Contains(msg, "schema cache"):
		return KindSchemaMismatch
	case strings.Contains(msg, "column") && strings.Contains(msg, "does not exist"):
		return KindSchemaMismatch
	case strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"):
		return KindSchemaMismatch
	case strings.Contains(msg, "null value in column"):
		return KindNotNullViolation
	case strings.Contains(msg, "violates foreign key constraint"):
		return KindForeignKeyViolation
	default:
		return KindOther
	}
}
