package syncbox

import "time"

const (
	// schemaRetryDelay is the fixed cadence for schema-mismatch retries. These
	// self-heal once the remote schema is fixed externally, so they never age
	// out and never back off further.
	schemaRetryDelay = 15 * time.Second

	minRetryDelay = 2 * time.Second
	maxRetryDelay = 60 * time.Second

	// maxAttempts caps automatic retries for non-schema failures. Records at
	// the cap stay FAILED until externally reset.
	maxAttempts = 10

	// attemptShiftLimit keeps 1s<<attempts well inside int64 range; the cap
	// applies long before the shift saturates anyway.
	attemptShiftLimit = 6
)

// RetryDelay returns the wait between a failed attempt and the next
// eligibility for the given failure kind and attempt count.
func RetryDelay(kind Kind, attempts int) time.Duration {
	if kind == KindSchemaMismatch {
		return schemaRetryDelay
	}
	if attempts < 0 {
		attempts = 0
	}
	if attempts > attemptShiftLimit {
		attempts = attemptShiftLimit
	}

	delay := time.Second << attempts
	if delay < minRetryDelay {
		return minRetryDelay
	}
	if delay > maxRetryDelay {
		return maxRetryDelay
	}

	return delay
}

// Retryable reports whether a failed record may be retried automatically.
// Schema mismatches are always retryable; everything else expires at the
// attempt cap.
func Retryable(kind Kind, attempts int) bool {
	if kind == KindSchemaMismatch {
		return true
	}

	return attempts < maxAttempts
}

// Eligible reports whether a FAILED record's backoff window has elapsed.
// PENDING records are always eligible.
func Eligible(rec Record, now time.Time) bool {
	switch rec.Status {
	case StatusPending:
		return true
	case StatusFailed:
		if !Retryable(rec.ErrorKind, rec.Attempts) {
			return false
		}

		return now.Sub(rec.UpdatedAt) >= RetryDelay(rec.ErrorKind, rec.Attempts)
	default:
		return false
	}
}
