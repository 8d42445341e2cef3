package bucket

import (
	"time"

	"github.com/andreero0/nestsync-timeline/internal/core/model"
)

// displayOrder is the fixed order periods appear in output.
var displayOrder = []model.PeriodType{
	model.PeriodToday,
	model.PeriodYesterday,
	model.PeriodThisWeek,
	model.PeriodLastWeek,
	model.PeriodEarlier,
}

var periodLabels = map[model.PeriodType]string{
	model.PeriodToday:     "Today",
	model.PeriodYesterday: "Yesterday",
	model.PeriodThisWeek:  "This Week",
	model.PeriodLastWeek:  "Last Week",
	model.PeriodEarlier:   "Earlier",
}

// Bucket partitions events into the five fixed date-range buckets relative
// to now. Classification evaluates the predicates in priority order and the
// first match wins: an event that is both "yesterday" and inside the
// current week window is always bucketed as YESTERDAY. Buckets with zero
// events are omitted. Pure function of (events, now); event order within a
// bucket follows input order.
func Bucket(events []model.TimelineEvent, now time.Time) []model.TimePeriod {
	grouped := make(map[model.PeriodType][]model.TimelineEvent)
	for _, event := range events {
		pt := Classify(event.Timestamp, now)
		grouped[pt] = append(grouped[pt], event)
	}

	periods := make([]model.TimePeriod, 0, len(grouped))
	for _, pt := range displayOrder {
		bucketEvents, ok := grouped[pt]
		if !ok {
			continue
		}
		start, end := periodBounds(pt, now)
		periods = append(periods, model.TimePeriod{
			Type:      pt,
			Label:     periodLabels[pt],
			StartDate: start,
			EndDate:   end,
			Events:    bucketEvents,
		})
	}

	return periods
}

// Classify returns the period an instant belongs to relative to now.
//
// The week windows are rolling 7-calendar-day spans anchored at now:
// "This Week" covers today and the six preceding days, "Last Week" the
// seven days before that.
func Classify(ts, now time.Time) model.PeriodType {
	ts = ts.In(now.Location())

	switch {
	case sameDay(ts, now):
		return model.PeriodToday
	case sameDay(ts, now.AddDate(0, 0, -1)):
		return model.PeriodYesterday
	case !ts.Before(thisWeekStart(now)):
		return model.PeriodThisWeek
	case !ts.Before(lastWeekStart(now)):
		return model.PeriodLastWeek
	default:
		return model.PeriodEarlier
	}
}

// sameDay reports whether two instants fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// startOfDay returns midnight of t's calendar day in t's location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// thisWeekStart returns midnight seven calendar days back, inclusive of
// today.
func thisWeekStart(now time.Time) time.Time {
	return startOfDay(now.AddDate(0, 0, -6))
}

// lastWeekStart returns midnight fourteen calendar days back.
func lastWeekStart(now time.Time) time.Time {
	return startOfDay(now.AddDate(0, 0, -13))
}

// periodBounds computes the inclusive start and exclusive end of a period.
// EARLIER is open at the start; its zero StartDate marks the open bound.
func periodBounds(pt model.PeriodType, now time.Time) (time.Time, time.Time) {
	today := startOfDay(now)
	switch pt {
	case model.PeriodToday:
		return today, today.AddDate(0, 0, 1)
	case model.PeriodYesterday:
		return today.AddDate(0, 0, -1), today
	case model.PeriodThisWeek:
		return thisWeekStart(now), today.AddDate(0, 0, 1)
	case model.PeriodLastWeek:
		return lastWeekStart(now), thisWeekStart(now)
	default:
		return time.Time{}, lastWeekStart(now)
	}
}
