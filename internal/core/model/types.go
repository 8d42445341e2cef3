package model

import "time"

// RawRecord is an unvalidated caregiving-event row as returned by the
// upstream data source. All fields are untrusted until normalized.
type RawRecord struct {
	ID        string      `json:"id"`
	LoggedAt  string      `json:"loggedAt"`
	Kind      string      `json:"kind"`
	Context   string      `json:"context,omitempty"`
	Notes     string      `json:"notes,omitempty"`
	Quantity  *float64    `json:"quantity,omitempty"`
	ActorName string      `json:"actorName,omitempty"`
	Flags     RecordFlags `json:"flags"`
	ChildID   string      `json:"childId"`
	ChildName string      `json:"childName,omitempty"`
}

// RecordFlags carries the optional condition flags of a raw record.
type RecordFlags struct {
	Wet    bool `json:"wet,omitempty"`
	Soiled bool `json:"soiled,omitempty"`
	Leaked bool `json:"leaked,omitempty"`
}

// Any reports whether at least one condition flag is set.
func (f RecordFlags) Any() bool {
	return f.Wet || f.Soiled || f.Leaked
}

// EventType classifies a timeline event. The set is closed; unrecognized
// upstream kinds map to EventDiaperChange as the documented fallback.
type EventType string

const (
	EventDiaperChange     EventType = "diaper_change"
	EventWipeUse          EventType = "wipe_use"
	EventCreamApplication EventType = "cream_application"
	EventAccidentCleanup  EventType = "accident_cleanup"
	EventPreventiveChange EventType = "preventive_change"
	EventOvernightChange  EventType = "overnight_change"
)

// ChildRef is a weak back-reference to an externally owned child entity.
type ChildRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// EventMetadata is the sanitized pass-through of a record's optional fields.
type EventMetadata struct {
	Quantity *float64    `json:"quantity,omitempty"`
	Context  string      `json:"context,omitempty"`
	Notes    string      `json:"notes,omitempty"`
	Flags    RecordFlags `json:"flags"`
}

// TimelineEvent is the normalized, display-ready representation of a raw
// record. Events are derived fresh on every fetch cycle and never persisted.
type TimelineEvent struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Timestamp time.Time     `json:"timestamp"`
	Title     string        `json:"title"`
	Details   string        `json:"details"`
	Metadata  EventMetadata `json:"metadata"`
	Child     ChildRef      `json:"child"`
}

// PeriodType identifies one of the five fixed display buckets.
type PeriodType string

const (
	PeriodToday     PeriodType = "today"
	PeriodYesterday PeriodType = "yesterday"
	PeriodThisWeek  PeriodType = "this_week"
	PeriodLastWeek  PeriodType = "last_week"
	PeriodEarlier   PeriodType = "earlier"
)

// TimePeriod is a derived view grouping events into one named date range.
// Recomputed whenever the event list or the clock tick changes.
type TimePeriod struct {
	Type      PeriodType      `json:"type"`
	Label     string          `json:"label"`
	StartDate time.Time       `json:"startDate"`
	EndDate   time.Time       `json:"endDate"`
	Events    []TimelineEvent `json:"events"`

	// Layout hints filled in by the presentation adapter, zero otherwise.
	StartY int `json:"startY,omitempty"`
	Height int `json:"height,omitempty"`
}

// PaginationState tracks the fetch cursor for one (child, filter) session.
type PaginationState struct {
	Offset   int  `json:"offset"`
	PageSize int  `json:"pageSize"`
	HasMore  bool `json:"hasMore"`
}

// TimeRange is the span covered by the currently held events.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
