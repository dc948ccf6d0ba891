package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tradewell/syncbox"
)

// Ledger derives per-(location, item) stock balances from the append-only
// movement log and keeps the outbox in step. It is the only writer of the
// balance table; the movement log is authoritative and the balance is a
// rebuildable cache over it.
type Ledger struct {
	db    *sql.DB
	store *Store
}

// Entity type tags used for outbox records the ledger enqueues.
const (
	EntityStockMovement = "stock_movement"
	EntityStockBalance  = "stock_balance"
)

// NewLedger constructs a Ledger sharing the store's database and tables.
func NewLedger(store *Store) (*Ledger, error) {
	if store == nil {
		return nil, ErrDBRequired
	}

	return &Ledger{db: store.db, store: store}, nil
}

// HasMovementsForReference reports whether movements already exist for the
// (referenceID, originTag) pair. Callers that may run more than once for the
// same business event check this before generating movements; it is the
// at-most-once contract for ledger application.
func (l *Ledger) HasMovementsForReference(ctx context.Context, referenceID, originTag string) (bool, error) {
	var count int
	if err := l.db.QueryRowContext(ctx, l.store.queries.countReference, referenceID, originTag).Scan(&count); err != nil {
		return false, fmt.Errorf("syncbox sqlite: reference lookup failed: %w", err)
	}

	return count > 0, nil
}

// ApplyMovements applies a movement batch in one local transaction: for each
// movement it updates the clamped balance, appends the movement row and
// enqueues an outbox record for it; one more outbox record per changed
// (location, item) carries the updated cached quantity. Returns the applied
// movements with assigned ids and timestamps.
func (l *Ledger) ApplyMovements(ctx context.Context, movements []syncbox.Movement) ([]syncbox.Movement, error) {
	if len(movements) == 0 {
		return nil, nil
	}
	for _, m := range movements {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("syncbox sqlite: begin tx failed: %w", err)
	}

	applied, err := l.applyInTx(ctx, tx, movements)
	if err != nil {
		rollbackErr := rollback(tx)

		return nil, errors.Join(err, rollbackErr)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("syncbox sqlite: commit failed: %w", err)
	}

	return applied, nil
}

// Reverse applies inverse movements for a previously-applied reference,
// tagged with reversalTag. It proceeds only when the original movements exist
// and no reversal movements exist yet; otherwise it is a no-op returning no
// movements, which makes retrying a reversal safe.
func (l *Ledger) Reverse(ctx context.Context, referenceID, originTag, reversalTag string) ([]syncbox.Movement, error) {
	originals, err := l.movementsForReference(ctx, referenceID, originTag)
	if err != nil {
		return nil, err
	}
	if len(originals) == 0 {
		l.store.cfg.Logger.Debug("syncbox nothing to reverse", "referenceID", referenceID, "originTag", originTag)

		return nil, nil
	}

	reversed, err := l.HasMovementsForReference(ctx, referenceID, reversalTag)
	if err != nil {
		return nil, err
	}
	if reversed {
		l.store.cfg.Logger.Debug("syncbox reversal already applied", "referenceID", referenceID, "reversalTag", reversalTag)

		return nil, nil
	}

	inverse := make([]syncbox.Movement, 0, len(originals))
	for _, m := range originals {
		inverse = append(inverse, inverseMovement(m, reversalTag))
	}

	return l.ApplyMovements(ctx, inverse)
}

// RebuildBalance recomputes one (location, item) balance by replaying its
// movement log with per-step clamping, matching incremental application, and
// writes the result back. Repair path, not on the hot path.
func (l *Ledger) RebuildBalance(ctx context.Context, locationID, itemID string) (int64, error) {
	movements, err := l.selectMovements(ctx, l.store.queries.selectMovements, locationID, itemID)
	if err != nil {
		return 0, err
	}

	var balance int64
	for _, m := range movements {
		balance = clamp(balance + m.Delta())
	}

	now := l.store.cfg.Clock.Now()
	if _, err := l.db.ExecContext(ctx, l.store.queries.upsertBalance, locationID, itemID, balance, now); err != nil {
		return 0, fmt.Errorf("syncbox sqlite: rebuild balance write failed: %w", err)
	}

	return balance, nil
}

// RebuildAllBalances recomputes every (location, item) pair present in the
// movement log. Returns the number of pairs rebuilt.
func (l *Ledger) RebuildAllBalances(ctx context.Context) (int, error) {
	rows, err := l.db.QueryContext(ctx, l.store.queries.selectPairs)
	if err != nil {
		return 0, fmt.Errorf("syncbox sqlite: select pairs failed: %w", err)
	}
	defer rows.Close()

	type pair struct{ location, item string }
	var pairs []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.location, &p.item); err != nil {
			return 0, fmt.Errorf("syncbox sqlite: scan pair failed: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("syncbox sqlite: pairs rows failed: %w", err)
	}

	for _, p := range pairs {
		if _, err := l.RebuildBalance(ctx, p.location, p.item); err != nil {
			return 0, err
		}
	}

	return len(pairs), nil
}

// Balance returns the cached quantity for a (location, item) pair; zero when
// no row exists yet.
func (l *Ledger) Balance(ctx context.Context, locationID, itemID string) (int64, error) {
	var quantity int64
	err := l.db.QueryRowContext(ctx, l.store.queries.selectBalance, locationID, itemID).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("syncbox sqlite: balance lookup failed: %w", err)
	}

	return quantity, nil
}

func (l *Ledger) applyInTx(ctx context.Context, tx *sql.Tx, movements []syncbox.Movement) ([]syncbox.Movement, error) {
	now := l.store.cfg.Clock.Now()
	applied := make([]syncbox.Movement, 0, len(movements))

	type balanceKey struct{ location, item string }
	running := make(map[balanceKey]int64)
	initial := make(map[balanceKey]int64)
	order := make([]balanceKey, 0, len(movements))

	for _, m := range movements {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.OccurredAt.IsZero() {
			m.OccurredAt = now
		}

		key := balanceKey{location: m.LocationID, item: m.ItemID}
		current, seen := running[key]
		if !seen {
			var err error
			current, err = balanceInTx(ctx, tx, l.store.queries.selectBalance, m.LocationID, m.ItemID)
			if err != nil {
				return nil, err
			}
			initial[key] = current
			order = append(order, key)
		}

		next := clamp(current + m.Delta())
		running[key] = next

		meta := any(nil)
		if len(m.Meta) > 0 {
			meta = string(m.Meta)
		}
		if _, err := tx.ExecContext(
			ctx,
			l.store.queries.insertMovement,
			m.ID,
			m.ItemID,
			m.LocationID,
			m.Kind.String(),
			m.Quantity,
			m.OriginTag,
			m.ReferenceID,
			meta,
			m.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("syncbox sqlite: insert movement failed: %w", err)
		}

		if err := l.enqueueMovement(ctx, tx, m); err != nil {
			return nil, err
		}
		applied = append(applied, m)
	}

	for _, key := range order {
		quantity := running[key]
		if quantity == initial[key] {
			continue
		}
		if _, err := tx.ExecContext(ctx, l.store.queries.upsertBalance, key.location, key.item, quantity, now); err != nil {
			return nil, fmt.Errorf("syncbox sqlite: balance write failed: %w", err)
		}
		if err := l.enqueueBalance(ctx, tx, key.location, key.item, quantity); err != nil {
			return nil, err
		}
	}

	return applied, nil
}

func (l *Ledger) enqueueMovement(ctx context.Context, tx *sql.Tx, m syncbox.Movement) error {
	payload, err := json.Marshal(movementPayload(m))
	if err != nil {
		return fmt.Errorf("syncbox sqlite: encode movement payload failed: %w", err)
	}

	_, err = l.store.Enqueue(ctx, tx, syncbox.Entry{
		EntityType: EntityStockMovement,
		Action:     syncbox.ActionUpsert,
		EntityID:   m.ID,
		Payload:    payload,
	})

	return err
}

func (l *Ledger) enqueueBalance(ctx context.Context, tx *sql.Tx, locationID, itemID string, quantity int64) error {
	entityID := locationID + ":" + itemID
	payload, err := json.Marshal(map[string]any{
		"id":          entityID,
		"location_id": locationID,
		"item_id":     itemID,
		"quantity":    quantity,
	})
	if err != nil {
		return fmt.Errorf("syncbox sqlite: encode balance payload failed: %w", err)
	}

	_, err = l.store.Enqueue(ctx, tx, syncbox.Entry{
		EntityType: EntityStockBalance,
		Action:     syncbox.ActionUpsert,
		EntityID:   entityID,
		Payload:    payload,
	})

	return err
}

func (l *Ledger) movementsForReference(ctx context.Context, referenceID, originTag string) ([]syncbox.Movement, error) {
	return l.selectMovements(ctx, l.store.queries.selectReference, referenceID, originTag)
}

func (l *Ledger) selectMovements(ctx context.Context, query string, args ...any) ([]syncbox.Movement, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("syncbox sqlite: select movements failed: %w", err)
	}
	defer rows.Close()

	var movements []syncbox.Movement
	for rows.Next() {
		var (
			m    syncbox.Movement
			kind string
			meta sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.ItemID, &m.LocationID, &kind, &m.Quantity, &m.OriginTag, &m.ReferenceID, &meta, &m.OccurredAt); err != nil {
			return nil, fmt.Errorf("syncbox sqlite: scan movement failed: %w", err)
		}
		parsed, err := syncbox.ParseMovementKind(kind)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, kind)
		}
		m.Kind = parsed
		if meta.Valid {
			m.Meta = []byte(meta.String)
		}
		m.OccurredAt = m.OccurredAt.UTC()
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("syncbox sqlite: movement rows failed: %w", err)
	}

	return movements, nil
}

func balanceInTx(ctx context.Context, tx *sql.Tx, query, locationID, itemID string) (int64, error) {
	var quantity int64
	err := tx.QueryRowContext(ctx, query, locationID, itemID).Scan(&quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("syncbox sqlite: balance lookup failed: %w", err)
	}

	return quantity, nil
}

// inverseMovement builds the movement that undoes m, tagged with reversalTag
// and keyed by the same reference so a reversal is itself idempotent. Count
// adjustments stay count adjustments with a negated divergence.
func inverseMovement(m syncbox.Movement, reversalTag string) syncbox.Movement {
	inverse := syncbox.Movement{
		ItemID:      m.ItemID,
		LocationID:  m.LocationID,
		Kind:        m.Kind.InverseKind(),
		Quantity:    m.Quantity,
		OriginTag:   reversalTag,
		ReferenceID: m.ReferenceID,
	}
	if m.Kind == syncbox.KindCountAdjustment {
		inverse.Quantity = 0
		inverse.Meta = syncbox.AdjustmentMeta(-m.Delta())
	}

	return inverse
}

func movementPayload(m syncbox.Movement) map[string]any {
	payload := map[string]any{
		"id":           m.ID,
		"item_id":      m.ItemID,
		"location_id":  m.LocationID,
		"kind":         m.Kind.String(),
		"quantity":     m.Quantity,
		"origin_tag":   m.OriginTag,
		"reference_id": m.ReferenceID,
		"occurred_at":  m.OccurredAt,
	}
	if len(m.Meta) > 0 {
		payload["meta"] = json.RawMessage(m.Meta)
	}

	return payload
}

func clamp(quantity int64) int64 {
	if quantity < 0 {
		return 0
	}

	return quantity
}

func rollback(tx *sql.Tx) error {
	err := tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}

	return err
}
