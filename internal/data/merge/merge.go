package merge

import (
	"sort"

	"github.com/andreero0/nestsync-timeline/internal/core/model"
)

// Strategy selects how incoming events combine with the held list.
type Strategy int

const (
	// Append keeps every existing event and adds only incoming events with
	// unseen ids. Used by load-more pagination.
	Append Strategy = iota
	// HeadReplace replaces existing events whose id matches an incoming one
	// and inserts new ids, leaving events beyond the incoming page
	// untouched. Used by the polling refresh.
	HeadReplace
)

// Events combines incoming events with the existing list under the given
// strategy. Dedupe-by-id applies on every path, so merging the same page
// twice is a no-op. The result is a fresh slice sorted by timestamp
// descending; neither input is mutated.
func Events(existing, incoming []model.TimelineEvent, strategy Strategy) []model.TimelineEvent {
	merged := make([]model.TimelineEvent, 0, len(existing)+len(incoming))
	seen := make(map[string]int, len(existing))

	for _, event := range existing {
		if _, ok := seen[event.ID]; ok {
			continue
		}
		seen[event.ID] = len(merged)
		merged = append(merged, event)
	}

	for _, event := range incoming {
		idx, ok := seen[event.ID]
		if !ok {
			seen[event.ID] = len(merged)
			merged = append(merged, event)
			continue
		}
		if strategy == HeadReplace {
			merged[idx] = event
		}
	}

	SortDescending(merged)
	return merged
}

// SortDescending orders events newest first, breaking timestamp ties by id
// so repeated merges are deterministic.
func SortDescending(events []model.TimelineEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].ID < events[j].ID
		}
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}
