package syncbox

import (
	"context"
	"sync"
	"time"
)

// OutboxQueue is the slice of the local store the Dispatcher drives: batch
// selection plus outcome transitions. The sqlite package provides the durable
// implementation.
type OutboxQueue interface {
	// ListSyncable returns up to limit records due for an attempt: PENDING
	// first in creation order, then backoff-eligible FAILED records.
	ListSyncable(ctx context.Context, limit int) ([]Record, error)
	// MarkSent transitions a record to SENT and stamps its sync time.
	MarkSent(ctx context.Context, id string) error
	// MarkFailed records a failed attempt, classifying err for retry policy.
	MarkFailed(ctx context.Context, id string, err error) error
}

// PendingCounter optionally exposes a pending-record count for telemetry.
type PendingCounter interface {
	// PendingCount returns the current number of pending records.
	PendingCount(ctx context.Context) (int, error)
}

// RecordApplier applies one outbox record against the remote store.
type RecordApplier interface {
	// Apply reproduces the record's mutation remotely.
	Apply(ctx context.Context, record Record) error
}

// Dispatcher drains the outbox queue on a timer and on connectivity-restored
// events. Cycles never overlap: a trigger that fires while a cycle is in
// flight is a no-op. Within a cycle records are processed sequentially and
// failures are isolated to the record that produced them.
type Dispatcher struct {
	queue        OutboxQueue
	applier      RecordApplier
	connectivity Connectivity
	cfg          DispatcherConfig

	mu          sync.Mutex
	running     bool
	inFlight    bool
	stop        chan struct{}
	done        chan struct{}
	kick        chan struct{}
	unsubscribe func()
}

// NewDispatcher constructs a Dispatcher with defaults and optional settings.
func NewDispatcher(queue OutboxQueue, applier RecordApplier, opts ...DispatcherOption) *Dispatcher {
	if queue == nil {
		panic("syncbox: nil OutboxQueue")
	}
	if applier == nil {
		panic("syncbox: nil RecordApplier")
	}

	var cfg DispatcherConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	return &Dispatcher{
		queue:        queue,
		applier:      applier,
		connectivity: cfg.Connectivity,
		cfg:          cfg,
	}
}

// Start launches the background loop. Starting a running dispatcher is a
// no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()

		return
	}
	d.running = true
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	d.kick = make(chan struct{}, 1)
	d.unsubscribe = d.connectivity.Subscribe(d.requestCycle)
	stop, done, kick := d.stop, d.done, d.kick
	d.mu.Unlock()

	go d.run(stop, done, kick)
}

// Stop halts the loop and unsubscribes from connectivity events. Stopping a
// stopped dispatcher is a no-op. An in-flight remote call is not cancelled;
// Stop returns once the current cycle, if any, completes.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()

		return
	}
	d.running = false
	unsubscribe := d.unsubscribe
	d.unsubscribe = nil
	stop, done := d.stop, d.done
	d.mu.Unlock()

	unsubscribe()
	close(stop)
	<-done
}

// SyncNow requests an immediate cycle. If a cycle is already in flight the
// request is dropped, matching the timer and connectivity triggers.
func (d *Dispatcher) SyncNow() {
	d.requestCycle()
}

func (d *Dispatcher) requestCycle() {
	d.mu.Lock()
	kick := d.kick
	running := d.running
	d.mu.Unlock()
	if !running {
		return
	}

	select {
	case kick <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run(stop, done, kick chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			d.cycle(stop)
		case <-kick:
			d.cycle(stop)
		}
	}
}

// cycle runs one drain pass. The inFlight flag preserves "only one cycle at a
// time" even if a caller invokes ProcessOnce directly while the loop runs.
func (d *Dispatcher) cycle(stop chan struct{}) {
	d.mu.Lock()
	if d.inFlight {
		d.mu.Unlock()

		return
	}
	d.inFlight = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.inFlight = false
		d.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := d.processOnce(ctx); err != nil {
		d.cfg.Logger.Error("syncbox cycle failed", "err", err)
	}
}

// ProcessOnce runs a single drain pass synchronously. It is safe to call on a
// stopped dispatcher; on a running one it contends with the loop via the
// inFlight flag.
func (d *Dispatcher) ProcessOnce(ctx context.Context) (int, error) {
	d.mu.Lock()
	if d.inFlight {
		d.mu.Unlock()

		return 0, nil
	}
	d.inFlight = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.inFlight = false
		d.mu.Unlock()
	}()

	return d.processOnce(ctx)
}

func (d *Dispatcher) processOnce(ctx context.Context) (int, error) {
	if !d.connectivity.Online() {
		d.cfg.Metrics.AddSkippedOffline()
		d.cfg.Logger.Debug("syncbox offline, cycle skipped")

		return 0, nil
	}

	start := d.cfg.Clock.Now()
	defer func() {
		d.cfg.Metrics.ObserveCycleDuration(d.cfg.Clock.Now().Sub(start))
	}()

	records, err := d.queue.ListSyncable(ctx, d.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		d.recordPending(ctx)

		return 0, nil
	}

	sent := 0
	failed := 0
	for i := range records {
		if ctx.Err() != nil {
			break
		}
		record := records[i]
		if d.applyOne(ctx, record) {
			sent++
		} else {
			failed++
		}
	}

	d.cfg.Metrics.AddSent(sent)
	d.cfg.Metrics.AddFailed(failed)
	d.recordPending(ctx)
	d.cfg.Logger.Info("syncbox cycle complete", "sent", sent, "failed", failed)

	return sent, nil
}

func (d *Dispatcher) applyOne(ctx context.Context, record Record) bool {
	applyCtx := ctx
	cancel := func() {}
	if d.cfg.ApplyTimeout > 0 {
		applyCtx, cancel = context.WithTimeout(ctx, d.cfg.ApplyTimeout)
	}
	err := d.applier.Apply(applyCtx, record)
	cancel()

	if err == nil {
		if markErr := d.queue.MarkSent(ctx, record.ID); markErr != nil {
			d.cfg.Logger.Error("syncbox mark sent failed", "id", record.ID, "err", markErr)

			return false
		}

		return true
	}

	d.cfg.Logger.Warn("syncbox record failed",
		"id", record.ID, "entityType", record.EntityType, "kind", Classify(err).String(), "err", err)
	if markErr := d.queue.MarkFailed(ctx, record.ID, err); markErr != nil {
		d.cfg.Logger.Error("syncbox mark failed failed", "id", record.ID, "err", markErr)
	}

	return false
}

func (d *Dispatcher) recordPending(ctx context.Context) {
	counter, ok := d.queue.(PendingCounter)
	if !ok {
		return
	}

	count, err := counter.PendingCount(ctx)
	if err != nil {
		d.cfg.Logger.Warn("syncbox pending count failed", "err", err)

		return
	}

	d.cfg.Metrics.SetPending(count)
}
