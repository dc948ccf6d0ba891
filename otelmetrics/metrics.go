// Package otelmetrics adapts the syncbox Metrics interface to the
// OpenTelemetry metric API.
package otelmetrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tradewell/syncbox"
)

// Recorder implements syncbox.Metrics over an OpenTelemetry meter.
type Recorder struct {
	cycleDuration  metric.Float64Histogram
	sent           metric.Int64Counter
	failed         metric.Int64Counter
	skippedOffline metric.Int64Counter
	pending        metric.Int64Gauge
}

var _ syncbox.Metrics = (*Recorder)(nil)

// New constructs a Recorder registering its instruments on the meter.
func New(meter metric.Meter) (*Recorder, error) {
	cycleDuration, err := meter.Float64Histogram(
		"syncbox.cycle.duration",
		metric.WithDescription("Time to run one sync cycle."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	sent, err := meter.Int64Counter(
		"syncbox.records.sent",
		metric.WithDescription("Outbox records applied to the remote store."),
	)
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter(
		"syncbox.records.failed",
		metric.WithDescription("Outbox record attempts that failed."),
	)
	if err != nil {
		return nil, err
	}
	skippedOffline, err := meter.Int64Counter(
		"syncbox.cycles.skipped_offline",
		metric.WithDescription("Sync cycles skipped because the remote was offline."),
	)
	if err != nil {
		return nil, err
	}
	pending, err := meter.Int64Gauge(
		"syncbox.records.pending",
		metric.WithDescription("Outbox records currently pending."),
	)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		cycleDuration:  cycleDuration,
		sent:           sent,
		failed:         failed,
		skippedOffline: skippedOffline,
		pending:        pending,
	}, nil
}

// ObserveCycleDuration implements syncbox.Metrics.
func (r *Recorder) ObserveCycleDuration(duration time.Duration) {
	r.cycleDuration.Record(context.Background(), duration.Seconds())
}

// AddSent implements syncbox.Metrics.
func (r *Recorder) AddSent(count int) {
	r.sent.Add(context.Background(), int64(count))
}

// AddFailed implements syncbox.Metrics.
func (r *Recorder) AddFailed(count int) {
	r.failed.Add(context.Background(), int64(count))
}

// AddSkippedOffline implements syncbox.Metrics.
func (r *Recorder) AddSkippedOffline() {
	r.skippedOffline.Add(context.Background(), 1)
}

// SetPending implements syncbox.Metrics.
func (r *Recorder) SetPending(count int) {
	r.pending.Record(context.Background(), int64(count))
}
