package timeline

import (
	"context"
	"time"

	"github.com/andreero0/nestsync-timeline/internal/util"
)

// Poller drives one store's background refresh: the poll query on its
// configured interval and the coarse clock tick that re-buckets periods
// across day boundaries. Both timers are owned here, not by the store, so
// the store stays deterministic under test.
type Poller struct {
	store  *Store
	config *Config
}

// NewPoller creates a poller for the given store.
func NewPoller(store *Store, config *Config) *Poller {
	return &Poller{store: store, config: config}
}

// Run blocks until the context ends. Poll failures never stop the loop; a
// run of consecutive failures stretches the next poll delay instead,
// doubling per failure up to the configured cap, and one success restores
// the normal cadence.
func (p *Poller) Run(ctx context.Context) {
	clockTicker := time.NewTicker(p.config.ClockTickInterval)
	defer clockTicker.Stop()

	pollTimer := time.NewTimer(p.config.PollInterval)
	defer pollTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			util.LogDebugf("Poller stopped for %s", p.store.Key())
			return

		case <-clockTicker.C:
			p.store.Tick()

		case <-pollTimer.C:
			if err := p.store.PollTick(ctx); err != nil && ctx.Err() != nil {
				return
			}
			pollTimer.Reset(p.nextDelay())
		}
	}
}

// nextDelay computes the delay before the next poll from the current run
// of consecutive failures.
func (p *Poller) nextDelay() time.Duration {
	failures := p.store.ConsecutiveFailures()
	if failures == 0 {
		return p.config.PollInterval
	}

	delay := p.config.PollInterval
	for i := 0; i < failures && delay < p.config.MaxPollBackoff; i++ {
		delay *= 2
	}
	if delay > p.config.MaxPollBackoff {
		delay = p.config.MaxPollBackoff
	}
	util.LogDebugf("Backing off polls for %s: %d consecutive failures, next in %v", p.store.Key(), failures, delay)
	return delay
}
