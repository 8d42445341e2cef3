package fetcher

import (
	"context"

	"github.com/andreero0/nestsync-timeline/internal/core/model"
)

// Query describes one paginated record request. The "more data available"
// signal is implicit: a response shorter than Limit means the last page.
type Query struct {
	ChildID  string
	Kind     string // optional event kind filter
	DaysBack int    // optional lookback window, 0 means unbounded
	Limit    int
	Offset   int
}

// RecordFetcher issues one paginated query against the upstream source.
// Implementations surface success or a typed error per request; retry
// coordination beyond that is their own concern.
type RecordFetcher interface {
	FetchRecords(ctx context.Context, query Query) ([]model.RawRecord, error)
}
