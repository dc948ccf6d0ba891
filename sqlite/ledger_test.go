package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradewell/syncbox"
)

func newTestLedger(t *testing.T) (*Ledger, *Store, *fakeClock) {
	t.Helper()

	store, clock := newTestStore(t)
	ledger, err := NewLedger(store)
	require.NoError(t, err)

	return ledger, store, clock
}

func movement(kind syncbox.MovementKind, qty int64, originTag, referenceID string) syncbox.Movement {
	return syncbox.Movement{
		ItemID:      "item-A",
		LocationID:  "loc-L",
		Kind:        kind,
		Quantity:    qty,
		OriginTag:   originTag,
		ReferenceID: referenceID,
	}
}

func seedStock(t *testing.T, ledger *Ledger, qty int64) {
	t.Helper()

	_, err := ledger.ApplyMovements(context.Background(), []syncbox.Movement{
		movement(syncbox.KindInbound, qty, "INITIAL_STOCK", "seed-1"),
	})
	require.NoError(t, err)
}

func TestApplyMovementsUpdatesBalanceAndOutbox(t *testing.T) {
	ledger, store, _ := newTestLedger(t)
	ctx := context.Background()

	seedStock(t, ledger, 10)

	applied, err := ledger.ApplyMovements(ctx, []syncbox.Movement{
		movement(syncbox.KindOutbound, 3, "ORDER_COMPLETION", "ord-1"),
	})
	require.NoError(t, err)
	require.Len(t, applied, 1)
	require.NotEmpty(t, applied[0].ID)
	require.False(t, applied[0].OccurredAt.IsZero())

	balance, err := ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.EqualValues(t, 7, balance)

	// One outbox record per movement plus one per changed balance, per batch.
	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, counts.Pending)

	records, err := store.ListSyncable(ctx, 10)
	require.NoError(t, err)
	byType := map[string]int{}
	for _, rec := range records {
		byType[rec.EntityType]++
		require.Equal(t, syncbox.ActionUpsert, rec.Action)
	}
	require.Equal(t, map[string]int{EntityStockMovement: 2, EntityStockBalance: 2}, byType)
}

func TestHasMovementsForReferenceGuardsRegeneration(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	seedStock(t, ledger, 10)

	// The business-event handler pattern: check, then generate.
	applyOrder := func() {
		exists, err := ledger.HasMovementsForReference(ctx, "ord-1", "ORDER_COMPLETION")
		require.NoError(t, err)
		if exists {
			return
		}
		_, err = ledger.ApplyMovements(ctx, []syncbox.Movement{
			movement(syncbox.KindOutbound, 3, "ORDER_COMPLETION", "ord-1"),
		})
		require.NoError(t, err)
	}

	applyOrder()
	balanceAfterFirst, err := ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.EqualValues(t, 7, balanceAfterFirst)

	// Re-entering the handler for the same business event is a no-op.
	applyOrder()
	balanceAfterSecond, err := ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.Equal(t, balanceAfterFirst, balanceAfterSecond)

	movements, err := ledger.movementsForReference(ctx, "ord-1", "ORDER_COMPLETION")
	require.NoError(t, err)
	require.Len(t, movements, 1)
}

func TestBalanceClampsAtZero(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	seedStock(t, ledger, 2)

	_, err := ledger.ApplyMovements(ctx, []syncbox.Movement{
		movement(syncbox.KindOutbound, 5, "ORDER_COMPLETION", "ord-1"),
	})
	require.NoError(t, err)

	balance, err := ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestCountAdjustmentUsesMetadataDivergence(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	seedStock(t, ledger, 10)

	adjustment := movement(syncbox.KindCountAdjustment, 0, "MANUAL_ADJUSTMENT", "count-1")
	adjustment.Meta = syncbox.AdjustmentMeta(-4)
	_, err := ledger.ApplyMovements(ctx, []syncbox.Movement{adjustment})
	require.NoError(t, err)

	balance, err := ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.EqualValues(t, 6, balance)

	// An adjustment without divergence metadata applies as a zero delta.
	empty := movement(syncbox.KindCountAdjustment, 0, "MANUAL_ADJUSTMENT", "count-2")
	_, err = ledger.ApplyMovements(ctx, []syncbox.Movement{empty})
	require.NoError(t, err)

	balance, err = ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.EqualValues(t, 6, balance)
}

func TestReverseRestoresBalance(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	seedStock(t, ledger, 10)

	_, err := ledger.ApplyMovements(ctx, []syncbox.Movement{
		movement(syncbox.KindOutbound, 3, "ORDER_COMPLETION", "ord-1"),
	})
	require.NoError(t, err)

	reversed, err := ledger.Reverse(ctx, "ord-1", "ORDER_COMPLETION", "ORDER_CANCELLATION")
	require.NoError(t, err)
	require.Len(t, reversed, 1)
	require.Equal(t, syncbox.KindInbound, reversed[0].Kind)
	require.Equal(t, "ORDER_CANCELLATION", reversed[0].OriginTag)

	balance, err := ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.EqualValues(t, 10, balance)

	// A second reversal attempt is a no-op.
	again, err := ledger.Reverse(ctx, "ord-1", "ORDER_COMPLETION", "ORDER_CANCELLATION")
	require.NoError(t, err)
	require.Empty(t, again)

	balance, err = ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.EqualValues(t, 10, balance)
}

func TestReverseWithoutOriginalsIsNoOp(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	reversed, err := ledger.Reverse(context.Background(), "ord-missing", "ORDER_COMPLETION", "ORDER_CANCELLATION")
	require.NoError(t, err)
	require.Empty(t, reversed)
}

func TestReverseCountAdjustmentNegatesDivergence(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	seedStock(t, ledger, 10)

	adjustment := movement(syncbox.KindCountAdjustment, 0, "MANUAL_ADJUSTMENT", "count-1")
	adjustment.Meta = syncbox.AdjustmentMeta(5)
	_, err := ledger.ApplyMovements(ctx, []syncbox.Movement{adjustment})
	require.NoError(t, err)

	_, err = ledger.Reverse(ctx, "count-1", "MANUAL_ADJUSTMENT", "ADJUSTMENT_REVERSAL")
	require.NoError(t, err)

	balance, err := ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.EqualValues(t, 10, balance)
}

func TestRebuildBalanceReplaysClampedSteps(t *testing.T) {
	ledger, _, clock := newTestLedger(t)
	ctx := context.Background()

	// Outbound before any stock clamps to zero; the later inbound then lands
	// on an empty balance. A plain sum would give max(0, -5+3) = 0.
	_, err := ledger.ApplyMovements(ctx, []syncbox.Movement{
		movement(syncbox.KindOutbound, 5, "ORDER_COMPLETION", "ord-1"),
	})
	require.NoError(t, err)
	clock.Advance(time.Second)
	_, err = ledger.ApplyMovements(ctx, []syncbox.Movement{
		movement(syncbox.KindInbound, 3, "GOODS_RECEIPT", "rcpt-1"),
	})
	require.NoError(t, err)

	incremental, err := ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.EqualValues(t, 3, incremental)

	// Corrupt the cache, then repair from the authoritative log.
	_, err = ledger.db.ExecContext(ctx, "UPDATE stock_balance SET quantity = 999")
	require.NoError(t, err)

	rebuilt, err := ledger.RebuildBalance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.EqualValues(t, incremental, rebuilt)

	balance, err := ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.Equal(t, incremental, balance)
}

func TestRebuildAllBalances(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.ApplyMovements(ctx, []syncbox.Movement{
		movement(syncbox.KindInbound, 5, "GOODS_RECEIPT", "rcpt-1"),
		{
			ItemID:      "item-B",
			LocationID:  "loc-L",
			Kind:        syncbox.KindInbound,
			Quantity:    2,
			OriginTag:   "GOODS_RECEIPT",
			ReferenceID: "rcpt-1",
		},
	})
	require.NoError(t, err)

	rebuilt, err := ledger.RebuildAllBalances(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, rebuilt)
}

func TestApplyMovementsRejectsInvalid(t *testing.T) {
	ledger, store, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.ApplyMovements(ctx, []syncbox.Movement{
		movement(syncbox.MovementKind(42), 1, "GOODS_RECEIPT", "rcpt-1"),
	})
	require.ErrorIs(t, err, syncbox.ErrUnknownMovementKind)

	counts, err := store.Counts(ctx)
	require.NoError(t, err)
	require.Zero(t, counts.Pending, "rejected batch must leave no outbox records")
}

func TestApplyMovementsEmptyBatch(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	applied, err := ledger.ApplyMovements(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, applied)
}

func TestUnchangedBalanceEnqueuesNoBalanceRecord(t *testing.T) {
	ledger, store, _ := newTestLedger(t)
	ctx := context.Background()

	empty := movement(syncbox.KindCountAdjustment, 0, "MANUAL_ADJUSTMENT", "count-1")
	_, err := ledger.ApplyMovements(ctx, []syncbox.Movement{empty})
	require.NoError(t, err)

	records, err := store.ListSyncable(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, EntityStockMovement, records[0].EntityType)
}

func TestSameBatchMovementsShareRunningBalance(t *testing.T) {
	ledger, _, _ := newTestLedger(t)
	ctx := context.Background()

	// Both lines of one order hit the same (location, item); the second must
	// see the balance left by the first, not the stale starting value.
	_, err := ledger.ApplyMovements(ctx, []syncbox.Movement{
		movement(syncbox.KindInbound, 10, "GOODS_RECEIPT", "rcpt-1"),
		movement(syncbox.KindOutbound, 4, "GOODS_RECEIPT", "rcpt-1"),
	})
	require.NoError(t, err)

	balance, err := ledger.Balance(ctx, "loc-L", "item-A")
	require.NoError(t, err)
	require.EqualValues(t, 6, balance)
}
