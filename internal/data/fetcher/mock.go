package fetcher

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andreero0/nestsync-timeline/internal/core/model"
)

// InMemoryFetcher is a lightweight simulation of the records API for unit
// tests. It pages over seeded records newest first and can be primed to
// fail a configurable number of requests.
type InMemoryFetcher struct {
	mu         sync.Mutex
	records    []model.RawRecord
	failNext   int
	failWith   error
	requestLog []Query
}

// NewInMemoryFetcher creates an empty in-memory fetcher.
func NewInMemoryFetcher() *InMemoryFetcher {
	return &InMemoryFetcher{}
}

// Seed adds records to the in-memory store.
func (f *InMemoryFetcher) Seed(records ...model.RawRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, records...)
}

// Replace swaps the whole store, simulating server-side changes between
// polls.
func (f *InMemoryFetcher) Replace(records ...model.RawRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append([]model.RawRecord{}, records...)
}

// FailNext makes the next n requests return err.
func (f *InMemoryFetcher) FailNext(n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
	f.failWith = err
}

// Requests returns the queries made so far, for assertions.
func (f *InMemoryFetcher) Requests() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Query, len(f.requestLog))
	copy(out, f.requestLog)
	return out
}

// FetchRecords simulates one paginated query.
func (f *InMemoryFetcher) FetchRecords(ctx context.Context, query Query) ([]model.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requestLog = append(f.requestLog, query)

	if f.failNext > 0 {
		f.failNext--
		return nil, f.failWith
	}

	subset := make([]model.RawRecord, 0, len(f.records))
	for _, rec := range f.records {
		if query.ChildID != "" && rec.ChildID != query.ChildID {
			continue
		}
		if query.Kind != "" && !strings.EqualFold(rec.Kind, query.Kind) {
			continue
		}
		subset = append(subset, rec)
	}

	sort.SliceStable(subset, func(i, j int) bool {
		ti, _ := time.Parse(time.RFC3339, subset[i].LoggedAt)
		tj, _ := time.Parse(time.RFC3339, subset[j].LoggedAt)
		return ti.After(tj)
	})

	if query.Offset >= len(subset) {
		return []model.RawRecord{}, nil
	}
	end := len(subset)
	if query.Limit > 0 && query.Offset+query.Limit < end {
		end = query.Offset + query.Limit
	}

	page := make([]model.RawRecord, end-query.Offset)
	copy(page, subset[query.Offset:end])
	return page, nil
}
