package timeline

import "time"

// Clock supplies the current instant. Injected so period boundaries and
// polling cadence can be simulated deterministically in tests; production
// code passes the timezone-aware util.TimeProvider.
type Clock interface {
	Now() time.Time
}
