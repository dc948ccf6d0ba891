// Package syncbox implements an offline-first synchronization core: a durable
// local outbox queue, a background dispatcher that drains it against a remote
// store under unreliable connectivity, and an idempotent stock ledger that
// derives running balances from an append-only movement log.
//
// Typical flow:
//  1. Within a local business transaction, enqueue outbox entries using a
//     storage-specific writer and apply stock movements through the ledger.
//  2. Run a Dispatcher with the local store and a Remote Applier to drain
//     pending entries on a timer and whenever connectivity is restored.
//  3. On success the Dispatcher marks entries as sent; on failure it classifies
//     the remote error and schedules a retry with the appropriate backoff.
//
// For the SQLite local store (outbox table, movement log, balance cache), see
// the sqlite package. For a PostgREST-style remote, see the postgrest package.
package syncbox
