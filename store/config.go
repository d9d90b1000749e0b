package store

import (
	"log/slog"
	"time"
)

// Config holds construction-time settings for the Store.
type Config struct {
	// Now is the reference timestamp for age arithmetic in LocationAvg.
	// It is captured once at construction, not read per query, so results
	// against a fixed dataset are reproducible. Defaults to the wall clock
	// at construction.
	Now time.Time

	// Logger is the structured logger for server-side faults.
	// Defaults to slog.Default.
	Logger *slog.Logger
}

// DefaultConfig returns a config suitable for serving a freshly generated
// dataset.
func DefaultConfig() Config {
	return Config{Now: time.Now()}
}

// validate fills in defaults for zero-valued fields.
func (c *Config) validate() {
	if c.Now.IsZero() {
		c.Now = time.Now()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
