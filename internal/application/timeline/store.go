package timeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andreero0/nestsync-timeline/internal/core/bucket"
	"github.com/andreero0/nestsync-timeline/internal/core/model"
	"github.com/andreero0/nestsync-timeline/internal/core/normalizer"
	"github.com/andreero0/nestsync-timeline/internal/data/fetcher"
	"github.com/andreero0/nestsync-timeline/internal/data/merge"
	"github.com/andreero0/nestsync-timeline/internal/util"
)

// SessionKey scopes a store to one (child, kind filter) pair. Changing the
// key allocates a fresh store; state is never reused across keys.
type SessionKey struct {
	ChildID string
	Kind    string
}

func (k SessionKey) String() string {
	if k.Kind == "" {
		return k.ChildID
	}
	return k.ChildID + "/" + k.Kind
}

// State is the read model exposed to the rendering collaborator. Slices are
// copies; consumers may hold them across recomputations.
type State struct {
	Events      []model.TimelineEvent
	Periods     []model.TimePeriod
	TimeRange   model.TimeRange
	Loading     bool
	Err         error
	HasMore     bool
	LastUpdated time.Time
}

// Store is the timeline engine facade for one session key. It reconciles
// the three update sources (initial load, load-more pagination, polling
// refresh) into one consistent in-memory model and derives display periods
// from it.
//
// Request kinds run under independent in-flight guards: no two requests of
// the same kind overlap, while requests of different kinds may. Commits are
// serialized by the store mutex, so interleaved completions stay consistent.
type Store struct {
	key    SessionKey
	config *Config

	fetcher    fetcher.RecordFetcher
	normalizer *normalizer.Normalizer
	clock      Clock
	layout     bucket.FixedRowLayout

	mu         sync.RWMutex
	events     []model.TimelineEvent
	periods    []model.TimePeriod
	timeRange  model.TimeRange
	pagination model.PaginationState
	loading    bool
	lastErr    error
	lastUpdate time.Time

	inFlight     map[string]bool
	pollFailures int
}

// NewStore creates a timeline store for one session key. The clock must
// yield instants in the configured display timezone.
func NewStore(key SessionKey, f fetcher.RecordFetcher, clock Clock, config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", config.Timezone, err)
	}

	return &Store{
		key:        key,
		config:     config,
		fetcher:    f,
		normalizer: normalizer.New(loc),
		clock:      clock,
		layout:     bucket.DefaultLayout(),
		pagination: model.PaginationState{PageSize: config.PageSize},
		inFlight:   make(map[string]bool),
	}, nil
}

// Key returns the session key this store is scoped to.
func (s *Store) Key() SessionKey {
	return s.key
}

// Load performs the initial fetch. A transport failure here is blocking:
// the error surfaces in the state and no events are held.
func (s *Store) Load(ctx context.Context) error {
	if !s.begin(model.RequestInitial) {
		return nil
	}
	defer s.end(model.RequestInitial)

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	events, hasMore, err := s.fetchPage(ctx, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		util.LogErrorf("Initial load failed for %s: %v", s.key, err)
		return err
	}

	s.events = events
	s.pagination = model.PaginationState{Offset: 0, PageSize: s.config.PageSize, HasMore: hasMore}
	s.commitLocked()
	return nil
}

// LoadMore fetches the next page and merges it with append semantics. A
// no-op when a load-more is already in flight or the session is exhausted.
// Failures are non-fatal: prior state is retained and the error exposed.
func (s *Store) LoadMore(ctx context.Context) error {
	s.mu.RLock()
	hasMore := s.pagination.HasMore
	nextOffset := s.pagination.Offset + s.pagination.PageSize
	s.mu.RUnlock()

	// Once hasMore goes false it stays false until a full refetch.
	if !hasMore {
		return nil
	}
	if !s.begin(model.RequestLoadMore) {
		return nil
	}
	defer s.end(model.RequestLoadMore)

	events, more, err := s.fetchPage(ctx, nextOffset)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		util.LogWarnf("Load more failed for %s: %v", s.key, err)
		return err
	}

	s.events = merge.Events(s.events, events, merge.Append)
	s.pagination.Offset = nextOffset
	s.pagination.HasMore = more
	s.commitLocked()
	return nil
}

// Refetch resets pagination and performs a full discard-and-replace with a
// fresh first page. HasMore is recomputed solely from that response.
func (s *Store) Refetch(ctx context.Context) error {
	if !s.begin(model.RequestInitial) {
		return nil
	}
	defer s.end(model.RequestInitial)

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	events, hasMore, err := s.fetchPage(ctx, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err
		util.LogWarnf("Refetch failed for %s: %v", s.key, err)
		return err
	}

	s.events = events
	s.pagination = model.PaginationState{Offset: 0, PageSize: s.config.PageSize, HasMore: hasMore}
	s.commitLocked()
	return nil
}

// PollTick re-issues the first-page query and merges with head-replace
// semantics: matching ids are refreshed in place, new ids inserted, events
// beyond the first page left untouched. Transient failure keeps the last
// known-good state and exposes a non-fatal error.
func (s *Store) PollTick(ctx context.Context) error {
	if !s.begin(model.RequestPoll) {
		return nil
	}
	defer s.end(model.RequestPoll)

	events, _, err := s.fetchPage(ctx, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.pollFailures++
		s.lastErr = err
		util.LogWarnf("Poll failed for %s (%d consecutive): %v", s.key, s.pollFailures, err)
		return err
	}

	s.pollFailures = 0
	s.events = merge.Events(s.events, events, merge.HeadReplace)
	s.commitLocked()
	return nil
}

// Tick recomputes period buckets from the held events and the current
// clock. Keeps TODAY/YESTERDAY boundaries correct across midnight without
// new data.
func (s *Store) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputePeriodsLocked()
}

// ConsecutiveFailures returns the current run of failed polls, consulted by
// the poller for backoff.
func (s *Store) ConsecutiveFailures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pollFailures
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.TimelineEvent, len(s.events))
	copy(events, s.events)
	periods := make([]model.TimePeriod, len(s.periods))
	copy(periods, s.periods)

	return State{
		Events:      events,
		Periods:     periods,
		TimeRange:   s.timeRange,
		Loading:     s.loading,
		Err:         s.lastErr,
		HasMore:     s.pagination.HasMore,
		LastUpdated: s.lastUpdate,
	}
}

// Pagination returns the current pagination cursor.
func (s *Store) Pagination() model.PaginationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pagination
}

// ScrollToEvent resolves an event id to a layout Y offset. A pure
// navigation hint; no state effect.
func (s *Store) ScrollToEvent(id string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout.EventOffset(s.layout.Apply(s.periods), id)
}

// ScrollToTime resolves an instant to the Y offset of the first event at or
// before it. A pure navigation hint; no state effect.
func (s *Store) ScrollToTime(t time.Time) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, event := range s.events {
		if !event.Timestamp.After(t) {
			return s.layout.EventOffset(s.layout.Apply(s.periods), event.ID)
		}
	}
	return 0, false
}

// fetchPage fetches and normalizes one page at the given offset. The
// has-more signal is inferred by comparing the raw page length to the
// requested limit. Invalid records are dropped with a warning, never
// fabricated into plausible-looking events.
func (s *Store) fetchPage(ctx context.Context, offset int) ([]model.TimelineEvent, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	records, err := s.fetcher.FetchRecords(ctx, fetcher.Query{
		ChildID:  s.key.ChildID,
		Kind:     s.key.Kind,
		DaysBack: s.config.DaysBack,
		Limit:    s.config.PageSize,
		Offset:   offset,
	})
	if err != nil {
		return nil, false, err
	}

	events, dropped := s.normalizer.NormalizePage(records)
	if dropped > 0 {
		util.LogWarnf("Dropped %d invalid records from page at offset %d for %s", dropped, offset, s.key)
	}

	merge.SortDescending(events)
	hasMore := len(records) == s.config.PageSize
	return events, hasMore, nil
}

// begin acquires the in-flight guard for one request kind.
func (s *Store) begin(kind string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[kind] {
		util.LogDebugf("Skipping %s for %s: request already in flight", kind, s.key)
		return false
	}
	s.inFlight[kind] = true
	return true
}

// end releases the in-flight guard for one request kind.
func (s *Store) end(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, kind)
}

// commitLocked finalizes a successful data update. Caller holds the lock.
func (s *Store) commitLocked() {
	s.lastErr = nil
	s.lastUpdate = s.clock.Now()
	s.recomputePeriodsLocked()
}

// recomputePeriodsLocked derives periods and time range from the held
// events. Caller holds the lock.
func (s *Store) recomputePeriodsLocked() {
	s.periods = bucket.Bucket(s.events, s.clock.Now())

	if len(s.events) == 0 {
		s.timeRange = model.TimeRange{}
		return
	}
	// Events are sorted descending: first is newest, last is oldest.
	s.timeRange = model.TimeRange{
		Start: s.events[len(s.events)-1].Timestamp,
		End:   s.events[0].Timestamp,
	}
}
