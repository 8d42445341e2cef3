package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreero0/nestsync-timeline/internal/data/fetcher"
)

func TestPollerBackoffSchedule(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
	store := newTestStore(t, fetcher.NewInMemoryFetcher(), clock, 25)
	config := &Config{
		Timezone:       "UTC",
		PollInterval:   30 * time.Second,
		MaxPollBackoff: 5 * time.Minute,
	}
	require.NoError(t, config.Validate())
	poller := NewPoller(store, config)

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{name: "healthy uses base interval", failures: 0, want: 30 * time.Second},
		{name: "one failure doubles", failures: 1, want: 60 * time.Second},
		{name: "two failures double again", failures: 2, want: 120 * time.Second},
		{name: "run of failures hits the cap", failures: 5, want: 5 * time.Minute},
		{name: "long run stays at the cap", failures: 20, want: 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.mu.Lock()
			store.pollFailures = tt.failures
			store.mu.Unlock()

			assert.Equal(t, tt.want, poller.nextDelay())
		})
	}
}

func TestPollerRecoveryRestoresCadence(t *testing.T) {
	clock := &testClock{now: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
	mock := fetcher.NewInMemoryFetcher()
	mock.Seed(record("r1", "2024-01-15T09:00:00Z"))

	store := newTestStore(t, mock, clock, 25)
	config := store.config
	poller := NewPoller(store, config)

	store.mu.Lock()
	store.pollFailures = 3
	store.mu.Unlock()
	require.Greater(t, poller.nextDelay(), config.PollInterval)

	// One successful poll clears the run.
	require.NoError(t, store.PollTick(context.Background()))
	assert.Equal(t, config.PollInterval, poller.nextDelay())
}
