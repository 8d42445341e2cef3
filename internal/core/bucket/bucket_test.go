package bucket

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreero0/nestsync-timeline/internal/core/model"
)

func eventAt(id string, ts time.Time) model.TimelineEvent {
	return model.TimelineEvent{
		ID:        id,
		Type:      model.EventDiaperChange,
		Timestamp: ts,
		Title:     "Someone changed a diaper",
	}
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestClassify(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		ts       time.Time
		expected model.PeriodType
	}{
		{name: "same day morning", ts: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), expected: model.PeriodToday},
		{name: "same day later", ts: time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC), expected: model.PeriodToday},
		{name: "previous calendar day", ts: time.Date(2024, 1, 14, 10, 0, 0, 0, time.UTC), expected: model.PeriodYesterday},
		{name: "six days back", ts: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), expected: model.PeriodThisWeek},
		{name: "week window edge", ts: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), expected: model.PeriodThisWeek},
		{name: "just past week window", ts: time.Date(2024, 1, 8, 23, 0, 0, 0, time.UTC), expected: model.PeriodLastWeek},
		{name: "thirteen days back", ts: time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC), expected: model.PeriodLastWeek},
		{name: "fourteen days back", ts: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), expected: model.PeriodEarlier},
		{name: "months back", ts: time.Date(2023, 10, 1, 12, 0, 0, 0, time.UTC), expected: model.PeriodEarlier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.ts, now))
		})
	}
}

// An event on the previous calendar day is always YESTERDAY even though it
// also falls inside the current week window; predicate priority is the
// tie-break.
func TestYesterdayWinsOverThisWeek(t *testing.T) {
	now := mustTime(t, "2024-01-15T12:00:00Z")
	ts := mustTime(t, "2024-01-14T10:00:00Z")

	assert.Equal(t, model.PeriodYesterday, Classify(ts, now))
}

func TestBucketScenario(t *testing.T) {
	now := mustTime(t, "2024-01-15T12:00:00Z")
	events := []model.TimelineEvent{
		eventAt("e1", mustTime(t, "2024-01-15T09:00:00Z")),
		eventAt("e2", mustTime(t, "2024-01-15T09:00:00Z")),
		eventAt("e3", mustTime(t, "2024-01-14T10:00:00Z")),
		eventAt("e4", mustTime(t, "2024-01-10T08:00:00Z")),
	}

	periods := Bucket(events, now)

	require.Len(t, periods, 3)
	assert.Equal(t, model.PeriodToday, periods[0].Type)
	assert.Len(t, periods[0].Events, 2)
	assert.Equal(t, model.PeriodYesterday, periods[1].Type)
	assert.Len(t, periods[1].Events, 1)
	assert.Equal(t, model.PeriodThisWeek, periods[2].Type)
	assert.Len(t, periods[2].Events, 1)
}

func TestBucketOmitsEmptyPeriods(t *testing.T) {
	now := mustTime(t, "2024-01-15T12:00:00Z")
	events := []model.TimelineEvent{
		eventAt("e1", mustTime(t, "2023-06-01T08:00:00Z")),
	}

	periods := Bucket(events, now)

	require.Len(t, periods, 1)
	assert.Equal(t, model.PeriodEarlier, periods[0].Type)
	assert.Equal(t, "Earlier", periods[0].Label)
}

func TestBucketEmptyInput(t *testing.T) {
	now := mustTime(t, "2024-01-15T12:00:00Z")
	assert.Empty(t, Bucket(nil, now))
}

// The non-empty periods are pairwise disjoint and their union equals the
// input event set.
func TestBucketPartitionProperty(t *testing.T) {
	now := mustTime(t, "2024-01-15T12:00:00Z")

	var events []model.TimelineEvent
	base := mustTime(t, "2023-11-20T06:30:00Z")
	for i := 0; i < 80; i++ {
		events = append(events, eventAt(fmt.Sprintf("e%d", i), base.Add(time.Duration(i)*17*time.Hour)))
	}

	periods := Bucket(events, now)

	seen := make(map[string]int)
	total := 0
	for _, period := range periods {
		assert.NotEmpty(t, period.Events)
		for _, event := range period.Events {
			seen[event.ID]++
			total++
		}
	}

	assert.Equal(t, len(events), total)
	for id, count := range seen {
		assert.Equal(t, 1, count, "event %s appears in more than one period", id)
	}
}

func TestBucketDisplayOrder(t *testing.T) {
	now := mustTime(t, "2024-01-15T12:00:00Z")
	// Input deliberately shuffled across periods
	events := []model.TimelineEvent{
		eventAt("earlier", mustTime(t, "2023-12-01T08:00:00Z")),
		eventAt("today", mustTime(t, "2024-01-15T07:00:00Z")),
		eventAt("lastweek", mustTime(t, "2024-01-03T08:00:00Z")),
		eventAt("yesterday", mustTime(t, "2024-01-14T22:00:00Z")),
		eventAt("thisweek", mustTime(t, "2024-01-11T08:00:00Z")),
	}

	periods := Bucket(events, now)

	require.Len(t, periods, 5)
	expected := []model.PeriodType{
		model.PeriodToday,
		model.PeriodYesterday,
		model.PeriodThisWeek,
		model.PeriodLastWeek,
		model.PeriodEarlier,
	}
	for i, period := range periods {
		assert.Equal(t, expected[i], period.Type)
	}
}

func TestBucketHonorsTimezoneDayBoundary(t *testing.T) {
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)

	// 03:00 UTC on Jan 15 is still Jan 14 in Toronto.
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, loc)
	ts := time.Date(2024, 1, 15, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, model.PeriodYesterday, Classify(ts, now))
}

func TestPeriodBoundsContiguous(t *testing.T) {
	now := mustTime(t, "2024-01-15T12:00:00Z")
	events := []model.TimelineEvent{
		eventAt("today", mustTime(t, "2024-01-15T07:00:00Z")),
		eventAt("yesterday", mustTime(t, "2024-01-14T22:00:00Z")),
		eventAt("thisweek", mustTime(t, "2024-01-11T08:00:00Z")),
		eventAt("lastweek", mustTime(t, "2024-01-03T08:00:00Z")),
	}

	periods := Bucket(events, now)
	require.Len(t, periods, 4)

	today, yesterday, thisWeek, lastWeek := periods[0], periods[1], periods[2], periods[3]
	assert.Equal(t, mustTime(t, "2024-01-15T00:00:00Z"), today.StartDate)
	assert.Equal(t, mustTime(t, "2024-01-16T00:00:00Z"), today.EndDate)
	assert.Equal(t, mustTime(t, "2024-01-14T00:00:00Z"), yesterday.StartDate)
	assert.Equal(t, today.StartDate, yesterday.EndDate)
	assert.Equal(t, mustTime(t, "2024-01-09T00:00:00Z"), thisWeek.StartDate)
	assert.Equal(t, mustTime(t, "2024-01-02T00:00:00Z"), lastWeek.StartDate)
	assert.Equal(t, thisWeek.StartDate, lastWeek.EndDate)
}
