package syncbox

import "time"

const (
	defaultInterval  = 30 * time.Second
	defaultBatchSize = 50
)

// DispatcherConfig defines how the Dispatcher polls and processes records.
type DispatcherConfig struct {
	Interval     time.Duration
	BatchSize    int
	ApplyTimeout time.Duration
	Connectivity Connectivity
	Clock        Clock
	Logger       Logger
	Metrics      Metrics
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.Connectivity == nil {
		c.Connectivity = StaticConnectivity{}
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics{}
	}

	return c
}

// DispatcherOption configures Dispatcher behavior.
type DispatcherOption func(*DispatcherConfig)

// WithInterval sets the delay between timed cycles.
func WithInterval(interval time.Duration) DispatcherOption {
	return func(c *DispatcherConfig) {
		c.Interval = interval
	}
}

// WithBatchSize sets the number of records selected per cycle.
func WithBatchSize(size int) DispatcherOption {
	return func(c *DispatcherConfig) {
		c.BatchSize = size
	}
}

// WithApplyTimeout sets a per-record remote apply timeout.
func WithApplyTimeout(timeout time.Duration) DispatcherOption {
	return func(c *DispatcherConfig) {
		c.ApplyTimeout = timeout
	}
}

// WithConnectivity sets the connectivity source.
func WithConnectivity(connectivity Connectivity) DispatcherOption {
	return func(c *DispatcherConfig) {
		c.Connectivity = connectivity
	}
}

// WithClock sets the dispatcher clock.
func WithClock(clock Clock) DispatcherOption {
	return func(c *DispatcherConfig) {
		c.Clock = clock
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger Logger) DispatcherOption {
	return func(c *DispatcherConfig) {
		c.Logger = logger
	}
}

// WithMetrics sets the dispatcher metrics recorder.
func WithMetrics(metrics Metrics) DispatcherOption {
	return func(c *DispatcherConfig) {
		c.Metrics = metrics
	}
}
