package util

import (
	"fmt"
	"sync"
	"time"
)

// TimeProvider handles timezone-aware time operations. The engine applies
// one configured IANA zone uniformly to timestamp normalization and period
// boundary computation.
type TimeProvider struct {
	location *time.Location
	mu       sync.RWMutex
}

// NewTimeProvider creates a provider for the given IANA zone name.
// An empty name falls back to the domain default.
func NewTimeProvider(timezone string) (*TimeProvider, error) {
	tp := &TimeProvider{}
	if err := tp.SetTimezone(timezone); err != nil {
		return nil, err
	}
	return tp, nil
}

// SetTimezone updates the timezone for the time provider
func (tp *TimeProvider) SetTimezone(timezone string) error {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if timezone == "" {
		timezone = "America/Toronto"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w\nValid examples: UTC, America/Toronto, America/New_York, Europe/London", timezone, err)
	}
	tp.location = loc
	return nil
}

// Location returns the configured location
func (tp *TimeProvider) Location() *time.Location {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return tp.location
}

// Now returns the current time in the configured timezone
func (tp *TimeProvider) Now() time.Time {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return time.Now().In(tp.location)
}

// In converts a time to the configured timezone
func (tp *TimeProvider) In(t time.Time) time.Time {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return t.In(tp.location)
}

// Format formats a time according to the layout in the configured timezone
func (tp *TimeProvider) Format(t time.Time, layout string) string {
	tp.mu.RLock()
	defer tp.mu.RUnlock()
	return t.In(tp.location).Format(layout)
}
