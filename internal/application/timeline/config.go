package timeline

import (
	"fmt"
	"time"

	"github.com/andreero0/nestsync-timeline/internal/core/model"
)

// Config contains configuration for one timeline engine instance.
type Config struct {
	// Display timezone (IANA name) applied to all timestamps and period
	// boundaries.
	Timezone string

	// Query settings
	PageSize int
	DaysBack int

	// Refresh settings
	PollInterval      time.Duration
	ClockTickInterval time.Duration
	FetchTimeout      time.Duration

	// Backoff cap for repeated consecutive poll failures.
	MaxPollBackoff time.Duration
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.Timezone == "" {
		c.Timezone = model.DefaultTimezone
	}
	if c.PageSize < 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.PageSize == 0 {
		c.PageSize = 25
	}
	if c.PollInterval == 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.ClockTickInterval == 0 {
		c.ClockTickInterval = 30 * time.Second
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.MaxPollBackoff == 0 {
		c.MaxPollBackoff = 5 * time.Minute
	}
	return nil
}
