// Package sqlite implements the durable local side of the sync core on an
// embedded SQLite database: the outbox queue, the append-only stock movement
// log, and the derived stock balance cache.
//
// All writes that must be atomic (a movement batch with its balance updates
// and outbox records; an enqueue joining a business transaction) run inside
// local transactions. The tables survive process restarts; apply the DDL from
// OutboxSchema, MovementSchema and BalanceSchema once at startup, or call
// Store.EnsureSchema.
package sqlite
