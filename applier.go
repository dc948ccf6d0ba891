package syncbox

import (
	"context"
	"fmt"
)

// Applier reproduces one outbox record's mutation against the remote store.
// It owns variant fallback only: it never touches the outbox (the Dispatcher's
// job) or the ledger.
type Applier struct {
	remote   Remote
	mappings map[string]Mapping
	logger   Logger
}

// NewApplier constructs an Applier over a remote store and an entity-type to
// mapping registry.
func NewApplier(remote Remote, mappings map[string]Mapping, opts ...ApplierOption) *Applier {
	if remote == nil {
		panic("syncbox: nil Remote")
	}

	a := &Applier{
		remote:   remote,
		mappings: mappings,
		logger:   NopLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithApplierLogger sets the applier logger.
func WithApplierLogger(logger Logger) ApplierOption {
	return func(a *Applier) {
		a.logger = logger
	}
}

// Apply attempts the record's mutation against the remote store, trying
// payload variants in order. It returns nil on the first accepted variant.
func (a *Applier) Apply(ctx context.Context, record Record) error {
	mapping, ok := a.mappings[record.EntityType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoMapping, record.EntityType)
	}

	switch record.Action {
	case ActionUpsert:
		return a.upsert(ctx, mapping, record)
	case ActionDelete:
		return a.delete(ctx, mapping, record)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, record.Action)
	}
}

func (a *Applier) upsert(ctx context.Context, mapping Mapping, record Record) error {
	if len(mapping.Variants) == 0 {
		return fmt.Errorf("%w: %s", ErrNoVariants, record.EntityType)
	}

	payload, err := decodePayload(record.Payload)
	if err != nil {
		return fmt.Errorf("syncbox: decode payload for %s/%s: %w", record.EntityType, record.EntityID, err)
	}

	var lastErr error
	for _, variant := range mapping.Variants {
		row, err := variant.Transform(payload)
		if err != nil {
			return fmt.Errorf("syncbox: variant %s transform failed: %w", variant.Name, err)
		}

		err = a.remote.Upsert(ctx, mapping.Collection, row, mapping.ConflictKey)
		if err == nil {
			return nil
		}
		if !variantFallback(Classify(err)) {
			return err
		}

		a.logger.Debug("syncbox variant rejected, trying next",
			"entityType", record.EntityType, "variant", variant.Name, "err", err)
		lastErr = err
	}

	return lastErr
}

func (a *Applier) delete(ctx context.Context, mapping Mapping, record Record) error {
	for _, child := range mapping.Children {
		if err := a.deleteChild(ctx, child, record); err != nil {
			return err
		}
	}

	idColumn := mapping.IDColumn
	if idColumn == "" {
		idColumn = "id"
	}

	return a.remote.Delete(ctx, mapping.Collection, idColumn, record.EntityID)
}

// deleteChild tries each candidate foreign-key column until the remote accepts
// one. Only schema mismatches move to the next candidate; any other error
// aborts the record immediately.
func (a *Applier) deleteChild(ctx context.Context, child ChildTable, record Record) error {
	var lastErr error
	for _, column := range child.FKColumns {
		err := a.remote.Delete(ctx, child.Collection, column, record.EntityID)
		if err == nil {
			return nil
		}
		if Classify(err) != KindSchemaMismatch {
			return err
		}

		a.logger.Debug("syncbox child fk column rejected, trying next",
			"collection", child.Collection, "column", column, "err", err)
		lastErr = err
	}

	return lastErr
}

// variantFallback reports whether a classified failure should advance to the
// next payload variant instead of aborting the record.
func variantFallback(kind Kind) bool {
	return kind == KindSchemaMismatch || kind == KindNotNullViolation
}
