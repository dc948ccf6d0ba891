package sqlite

import "github.com/tradewell/syncbox"

const (
	defaultOutboxTable   = "outbox"
	defaultMovementTable = "stock_movement"
	defaultBalanceTable  = "stock_balance"
)

// Config defines local store behavior.
type Config struct {
	OutboxTable   string
	MovementTable string
	BalanceTable  string
	Clock         syncbox.Clock
	Logger        syncbox.Logger
	ValidateJSON  bool
	validateSet   bool
}

func (c Config) withDefaults() Config {
	if c.OutboxTable == "" {
		c.OutboxTable = defaultOutboxTable
	}
	if c.MovementTable == "" {
		c.MovementTable = defaultMovementTable
	}
	if c.BalanceTable == "" {
		c.BalanceTable = defaultBalanceTable
	}
	if c.Clock == nil {
		c.Clock = syncbox.SystemClock{}
	}
	if c.Logger == nil {
		c.Logger = syncbox.NopLogger{}
	}
	if !c.validateSet {
		c.ValidateJSON = true
	}

	return c
}

// Option configures the local store.
type Option func(*Config)

// WithOutboxTable sets the outbox table name.
func WithOutboxTable(name string) Option {
	return func(c *Config) {
		c.OutboxTable = name
	}
}

// WithMovementTable sets the stock movement table name.
func WithMovementTable(name string) Option {
	return func(c *Config) {
		c.MovementTable = name
	}
}

// WithBalanceTable sets the stock balance table name.
func WithBalanceTable(name string) Option {
	return func(c *Config) {
		c.BalanceTable = name
	}
}

// WithClock sets the time source used by the store.
func WithClock(clock syncbox.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithLogger sets the store logger.
func WithLogger(logger syncbox.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithValidateJSON enables or disables JSON validation on enqueue payloads.
func WithValidateJSON(enabled bool) Option {
	return func(c *Config) {
		c.ValidateJSON = enabled
		c.validateSet = true
	}
}
