package sqlite

import "errors"

var (
	// ErrDBRequired is returned when a nil *sql.DB is provided.
	ErrDBRequired = errors.New("syncbox sqlite: db is required")
	// ErrExecutorRequired is returned when enqueue is called with a nil executor.
	ErrExecutorRequired = errors.New("syncbox sqlite: executor is required")
	// ErrTableNameRequired is returned when a table name is empty.
	ErrTableNameRequired = errors.New("syncbox sqlite: table name is required")
	// ErrInvalidTableName is returned when a table name has disallowed characters.
	ErrInvalidTableName = errors.New("syncbox sqlite: invalid table name")
	// ErrRecordNotFound is returned when a status transition targets an unknown id.
	ErrRecordNotFound = errors.New("syncbox sqlite: outbox record not found")
)
