package syncbox

import "time"

// Metrics captures dispatcher-level telemetry.
type Metrics interface {
	// ObserveCycleDuration records the time to run one sync cycle.
	ObserveCycleDuration(duration time.Duration)
	// AddSent increments the count of records applied to the remote.
	AddSent(count int)
	// AddFailed increments the count of records that failed an attempt.
	AddFailed(count int)
	// AddSkippedOffline increments the count of cycles skipped while offline.
	AddSkippedOffline()
	// SetPending updates the current pending record count.
	SetPending(count int)
}

// NopMetrics is a no-op metrics recorder.
type NopMetrics struct{}

// ObserveCycleDuration implements Metrics.
func (NopMetrics) ObserveCycleDuration(time.Duration) {}

// AddSent implements Metrics.
func (NopMetrics) AddSent(int) {}

// AddFailed implements Metrics.
func (NopMetrics) AddFailed(int) {}

// AddSkippedOffline implements Metrics.
func (NopMetrics) AddSkippedOffline() {}

// SetPending implements Metrics.
func (NopMetrics) SetPending(int) {}
