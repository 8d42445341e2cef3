package model

// Upstream kind identifiers
const (
	KindDiaperChange     = "diaper_change"
	KindWipeUse          = "wipe_use"
	KindCreamApplication = "cream_application"
	KindAccidentCleanup  = "accident_cleanup"
	KindPreventiveChange = "preventive_change"
	KindOvernightChange  = "overnight_change"
)

// Request kinds
const (
	RequestInitial  = "initial"
	RequestLoadMore = "loadMore"
	RequestPoll     = "poll"
)

// DefaultTimezone is applied when no IANA zone is configured.
const DefaultTimezone = "America/Toronto"
