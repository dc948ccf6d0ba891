package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/tradewell/syncbox"
)

const maxErrorLen = 1024

// Executor allows enqueuing within an existing transaction.
type Executor interface {
	// ExecContext executes a statement with the provided context.
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store implements the SQLite-backed outbox queue.
type Store struct {
	db      *sql.DB
	cfg     Config
	queries queries
}

var _ syncbox.OutboxQueue = (*Store)(nil)
var _ syncbox.PendingCounter = (*Store)(nil)

// NewStore constructs a SQLite store with validated configuration.
func NewStore(db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrDBRequired
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	for _, table := range []string{cfg.OutboxTable, cfg.MovementTable, cfg.BalanceTable} {
		if _, err := sanitizeTableName(table); err != nil {
			return nil, err
		}
	}

	return &Store{
		db:      db,
		cfg:     cfg,
		queries: newQueries(cfg),
	}, nil
}

// MustNewStore constructs a SQLite store or panics on error.
func MustNewStore(db *sql.DB, opts ...Option) *Store {
	store, err := NewStore(db, opts...)
	if err != nil {
		panic(err)
	}

	return store
}

// EnsureSchema creates the outbox, movement and balance tables if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddls := make([]string, 0, 3)
	for _, build := range []struct {
		fn    func(string) (string, error)
		table string
	}{
		{OutboxSchema, s.cfg.OutboxTable},
		{MovementSchema, s.cfg.MovementTable},
		{BalanceSchema, s.cfg.BalanceTable},
	} {
		ddl, err := build.fn(build.table)
		if err != nil {
			return err
		}
		ddls = append(ddls, ddl)
	}

	for _, ddl := range ddls {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("syncbox sqlite: create schema failed: %w", err)
		}
	}

	return nil
}

// Enqueue inserts a PENDING outbox record using the provided executor, so the
// record commits or rolls back together with the originating mutation.
func (s *Store) Enqueue(ctx context.Context, exec Executor, entry syncbox.Entry) (string, error) {
	if exec == nil {
		return "", ErrExecutorRequired
	}
	if err := syncbox.ValidateEntry(entry, s.cfg.ValidateJSON); err != nil {
		return "", err
	}

	id := entry.ID
	if id == "" {
		id = uuid.NewString()
	}

	payload := any(nil)
	if len(entry.Payload) > 0 {
		payload = string(entry.Payload)
	}

	now := s.cfg.Clock.Now()
	_, err := exec.ExecContext(
		ctx,
		s.queries.insert,
		id,
		entry.EntityType,
		string(entry.Action),
		entry.EntityID,
		payload,
		syncbox.StatusPending,
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("syncbox sqlite: insert failed: %w", err)
	}

	return id, nil
}

// ListSyncable returns up to limit records due for a sync attempt: PENDING
// records in creation order first, then backoff-eligible FAILED records, also
// in creation order. Earlier mutations are always attempted before later ones
// within each status tier.
func (s *Store) ListSyncable(ctx context.Context, limit int) ([]syncbox.Record, error) {
	if limit <= 0 {
		return nil, syncbox.ErrInvalidBatchSize
	}

	records, err := s.selectRecords(ctx, s.queries.selectPending, syncbox.StatusPending, limit)
	if err != nil {
		return nil, err
	}
	if len(records) >= limit {
		return records, nil
	}

	failed, err := s.selectRecords(ctx, s.queries.selectFailed, syncbox.StatusFailed)
	if err != nil {
		return nil, err
	}

	now := s.cfg.Clock.Now()
	for _, rec := range failed {
		if len(records) >= limit {
			break
		}
		if syncbox.Eligible(rec, now) {
			records = append(records, rec)
		}
	}

	return records, nil
}

// MarkSent transitions a record to SENT and stamps its sync time.
func (s *Store) MarkSent(ctx context.Context, id string) error {
	now := s.cfg.Clock.Now()
	res, err := s.db.ExecContext(ctx, s.queries.markSent, syncbox.StatusSent, now, now, id)
	if err != nil {
		return fmt.Errorf("syncbox sqlite: mark sent failed: %w", err)
	}

	return requireRow(res, id)
}

// MarkFailed records a failed attempt. The error is classified once here;
// schema mismatches keep their attempt count frozen so they never age out of
// automatic retry, everything else increments attempts toward the cap.
func (s *Store) MarkFailed(ctx context.Context, id string, cause error) error {
	kind := syncbox.Classify(cause)
	query := s.queries.markFailedBump
	if kind == syncbox.KindSchemaMismatch {
		query = s.queries.markFailedKeep
	}

	res, err := s.db.ExecContext(
		ctx,
		query,
		syncbox.StatusFailed,
		kind.String(),
		truncateError(cause),
		s.cfg.Clock.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("syncbox sqlite: mark failed failed: %w", err)
	}

	return requireRow(res, id)
}

// PendingCount returns the number of pending outbox rows.
func (s *Store) PendingCount(ctx context.Context) (int, error) {
	return s.countStatus(ctx, syncbox.StatusPending)
}

// Counts holds per-status outbox totals for diagnostics.
type Counts struct {
	Pending int
	Failed  int
	Sent    int
}

// Counts returns per-status outbox totals.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var counts Counts
	var err error
	if counts.Pending, err = s.countStatus(ctx, syncbox.StatusPending); err != nil {
		return Counts{}, err
	}
	if counts.Failed, err = s.countStatus(ctx, syncbox.StatusFailed); err != nil {
		return Counts{}, err
	}
	if counts.Sent, err = s.countStatus(ctx, syncbox.StatusSent); err != nil {
		return Counts{}, err
	}

	return counts, nil
}

func (s *Store) countStatus(ctx context.Context, status syncbox.Status) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, s.queries.countByStatus, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("syncbox sqlite: count failed: %w", err)
	}

	return count, nil
}

func (s *Store) selectRecords(ctx context.Context, query string, args ...any) ([]syncbox.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("syncbox sqlite: select failed: %w", err)
	}
	defer rows.Close()

	var records []syncbox.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("syncbox sqlite: rows failed: %w", err)
	}

	return records, nil
}

func scanRecord(rows *sql.Rows) (syncbox.Record, error) {
	var (
		rec       syncbox.Record
		action    string
		payload   sql.NullString
		errorKind string
		lastError sql.NullString
		syncedAt  sql.NullTime
	)

	err := rows.Scan(
		&rec.ID,
		&rec.EntityType,
		&action,
		&rec.EntityID,
		&payload,
		&rec.Status,
		&rec.Attempts,
		&errorKind,
		&lastError,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&syncedAt,
	)
	if err != nil {
		return syncbox.Record{}, fmt.Errorf("syncbox sqlite: scan failed: %w", err)
	}

	rec.Action = syncbox.Action(action)
	rec.ErrorKind = syncbox.ParseKind(errorKind)
	if payload.Valid {
		rec.Payload = []byte(payload.String)
	}
	if lastError.Valid {
		rec.LastError = lastError.String
	}
	if syncedAt.Valid {
		rec.SyncedAt = syncedAt.Time
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()

	return rec, nil
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("syncbox sqlite: rows affected failed: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}

	return nil
}

func truncateError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	if utf8.RuneCountInString(msg) <= maxErrorLen {
		return msg
	}

	runes := []rune(msg)

	return string(runes[:maxErrorLen])
}
