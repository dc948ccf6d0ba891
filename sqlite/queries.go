package sqlite

import "fmt"

type queries struct {
	insert          string
	selectPending   string
	selectFailed    string
	markSent        string
	markFailedBump  string
	markFailedKeep  string
	countByStatus   string
	insertMovement  string
	countReference  string
	selectReference string
	selectBalance   string
	upsertBalance   string
	selectMovements string
	selectPairs     string
}

const outboxCols = "id, entity_type, action, entity_id, payload, status, attempts, error_kind, last_error, created_at, updated_at, synced_at"

const movementCols = "id, item_id, location_id, kind, quantity, origin_tag, reference_id, meta, occurred_at"

func newQueries(cfg Config) queries {
	outbox := cfg.OutboxTable
	movement := cfg.MovementTable
	balance := cfg.BalanceTable

	return queries{
		insert: fmt.Sprintf(
			"INSERT INTO %s (id, entity_type, action, entity_id, payload, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			outbox,
		),
		selectPending: fmt.Sprintf(
			"SELECT %s FROM %s WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ?",
			outboxCols, outbox,
		),
		selectFailed: fmt.Sprintf(
			"SELECT %s FROM %s WHERE status = ? ORDER BY created_at ASC, id ASC",
			outboxCols, outbox,
		),
		markSent: fmt.Sprintf(
			"UPDATE %s SET status = ?, synced_at = ?, updated_at = ?, last_error = NULL WHERE id = ?",
			outbox,
		),
		markFailedBump: fmt.Sprintf(
			"UPDATE %s SET status = ?, attempts = attempts + 1, error_kind = ?, last_error = ?, updated_at = ? WHERE id = ?",
			outbox,
		),
		markFailedKeep: fmt.Sprintf(
			"UPDATE %s SET status = ?, error_kind = ?, last_error = ?, updated_at = ? WHERE id = ?",
			outbox,
		),
		countByStatus: fmt.Sprintf(
			"SELECT COUNT(*) FROM %s WHERE status = ?",
			outbox,
		),
		insertMovement: fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			movement, movementCols,
		),
		countReference: fmt.Sprintf(
			"SELECT COUNT(*) FROM %s WHERE reference_id = ? AND origin_tag = ?",
			movement,
		),
		selectReference: fmt.Sprintf(
			"SELECT %s FROM %s WHERE reference_id = ? AND origin_tag = ? ORDER BY occurred_at ASC, id ASC",
			movementCols, movement,
		),
		selectBalance: fmt.Sprintf(
			"SELECT quantity FROM %s WHERE location_id = ? AND item_id = ?",
			balance,
		),
		upsertBalance: fmt.Sprintf(
			"INSERT INTO %s (location_id, item_id, quantity, updated_at) VALUES (?, ?, ?, ?) "+
				"ON CONFLICT (location_id, item_id) DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at",
			balance,
		),
		selectMovements: fmt.Sprintf(
			"SELECT %s FROM %s WHERE location_id = ? AND item_id = ? ORDER BY occurred_at ASC, id ASC",
			movementCols, movement,
		),
		selectPairs: fmt.Sprintf(
			"SELECT DISTINCT location_id, item_id FROM %s",
			movement,
		),
	}
}
