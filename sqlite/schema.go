package sqlite

import "fmt"

const outboxSchemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
	id TEXT NOT NULL PRIMARY KEY,
	entity_type TEXT NOT NULL,
	action TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	payload TEXT NULL,
	status INTEGER NOT NULL DEFAULT 0,
	attempts INTEGER NOT NULL DEFAULT 0,
	error_kind TEXT NOT NULL DEFAULT 'OTHER',
	last_error TEXT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	synced_at TIMESTAMP NULL
);
CREATE INDEX IF NOT EXISTS idx_%s_status_created ON %s (status, created_at);`

const movementSchemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
	id TEXT NOT NULL PRIMARY KEY,
	item_id TEXT NOT NULL,
	location_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	origin_tag TEXT NOT NULL,
	reference_id TEXT NOT NULL,
	meta TEXT NULL,
	occurred_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%s_reference ON %s (reference_id, origin_tag);
CREATE INDEX IF NOT EXISTS idx_%s_location_item ON %s (location_id, item_id);`

const balanceSchemaTemplate = `CREATE TABLE IF NOT EXISTS %s (
	location_id TEXT NOT NULL,
	item_id TEXT NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (location_id, item_id)
);`

// OutboxSchema returns the DDL for an outbox table.
func OutboxSchema(table string) (string, error) {
	name, err := sanitizeTableName(table)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(outboxSchemaTemplate, name, name, name), nil
}

// MovementSchema returns the DDL for a stock movement table.
func MovementSchema(table string) (string, error) {
	name, err := sanitizeTableName(table)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(movementSchemaTemplate, name, name, name, name, name), nil
}

// BalanceSchema returns the DDL for a stock balance table.
func BalanceSchema(table string) (string, error) {
	name, err := sanitizeTableName(table)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(balanceSchemaTemplate, name), nil
}
