package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/andreero0/nestsync-timeline/internal/core/model"
)

// ActorPlaceholder is substituted when the actor name fails sanitation.
const ActorPlaceholder = "Someone"

// maxActorNameLength bounds sanitized actor names. Anything longer is
// treated as corrupted and replaced with the placeholder.
const maxActorNameLength = 49

// maxContextLength bounds context strings included in details prose.
const maxContextLength = 100

// acceptedLayouts are tried in order when parsing loggedAt.
var acceptedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Normalizer validates raw records and derives display-ready timeline
// events. It is a pure transformation; no network or storage access.
type Normalizer struct {
	location *time.Location
}

// New creates a Normalizer that renders all timestamps in the given zone.
func New(location *time.Location) *Normalizer {
	if location == nil {
		location = time.UTC
	}
	return &Normalizer{location: location}
}

// Normalize validates one raw record and derives its TimelineEvent. A
// record whose loggedAt cannot be parsed is rejected with a ValidationError,
// never coerced to the current instant.
func (n *Normalizer) Normalize(raw model.RawRecord) (model.TimelineEvent, error) {
	if raw.ID == "" {
		return model.TimelineEvent{}, &model.ValidationError{Field: "id", Reason: "missing record id"}
	}

	ts, err := parseLoggedAt(raw.LoggedAt)
	if err != nil {
		return model.TimelineEvent{}, &model.ValidationError{
			RecordID: raw.ID,
			Field:    "loggedAt",
			Reason:   fmt.Sprintf("unparsable timestamp %q", raw.LoggedAt),
		}
	}

	actor := SanitizeActorName(raw.ActorName)
	eventType := mapKind(raw.Kind)

	event := model.TimelineEvent{
		ID:        raw.ID,
		Type:      eventType,
		Timestamp: ts.In(n.location),
		Title:     synthesizeTitle(eventType, actor),
		Details:   synthesizeDetails(raw, actor),
		Metadata: model.EventMetadata{
			Quantity: raw.Quantity,
			Context:  strings.TrimSpace(raw.Context),
			Notes:    strings.TrimSpace(raw.Notes),
			Flags:    raw.Flags,
		},
		Child: model.ChildRef{
			ID:   raw.ChildID,
			Name: strings.TrimSpace(raw.ChildName),
		},
	}

	return event, nil
}

// NormalizePage normalizes a whole fetched page, dropping invalid records.
// Returns the valid events and the number of records dropped.
func (n *Normalizer) NormalizePage(records []model.RawRecord) ([]model.TimelineEvent, int) {
	events := make([]model.TimelineEvent, 0, len(records))
	dropped := 0

	for _, raw := range records {
		event, err := n.Normalize(raw)
		if err != nil {
			dropped++
			continue
		}
		events = append(events, event)
	}

	return events, dropped
}

// parseLoggedAt parses an upstream timestamp string. Zero times are
// rejected along with unparsable ones.
func parseLoggedAt(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range acceptedLayouts {
		ts, err := time.Parse(layout, trimmed)
		if err == nil {
			if ts.IsZero() {
				return time.Time{}, fmt.Errorf("zero timestamp")
			}
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}

// mapKind maps an upstream kind to the closed event type set. Unrecognized
// values map to EventDiaperChange as the documented fallback so downstream
// code never sees an unknown type.
func mapKind(kind string) model.EventType {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case model.KindDiaperChange:
		return model.EventDiaperChange
	case model.KindWipeUse:
		return model.EventWipeUse
	case model.KindCreamApplication:
		return model.EventCreamApplication
	case model.KindAccidentCleanup:
		return model.EventAccidentCleanup
	case model.KindPreventiveChange:
		return model.EventPreventiveChange
	case model.KindOvernightChange:
		return model.EventOvernightChange
	default:
		return model.EventDiaperChange
	}
}

// SanitizeActorName trims and collapses internal whitespace, requiring a
// length in [1,49]. Anything else becomes the generic placeholder so
// corrupted names never leak into generated prose.
func SanitizeActorName(name string) string {
	collapsed := strings.Join(strings.Fields(name), " ")
	if len(collapsed) == 0 || len(collapsed) > maxActorNameLength {
		return ActorPlaceholder
	}
	return collapsed
}

// synthesizeTitle produces the per-type verb phrase keyed on the actor.
func synthesizeTitle(eventType model.EventType, actor string) string {
	switch eventType {
	case model.EventWipeUse:
		return fmt.Sprintf("%s used wipes", actor)
	case model.EventCreamApplication:
		return fmt.Sprintf("%s applied cream", actor)
	case model.EventAccidentCleanup:
		return fmt.Sprintf("%s cleaned up an accident", actor)
	case model.EventPreventiveChange:
		return fmt.Sprintf("%s did a preventive change", actor)
	case model.EventOvernightChange:
		return fmt.Sprintf("%s did an overnight change", actor)
	default:
		return fmt.Sprintf("%s changed a diaper", actor)
	}
}

// synthesizeDetails joins the qualifying parts in fixed order: quantity,
// context, attribution, condition flags. Falls back to a generic phrase
// when nothing qualifies.
func synthesizeDetails(raw model.RawRecord, actor string) string {
	var parts []string

	if raw.Quantity != nil && *raw.Quantity > 0 {
		parts = append(parts, fmt.Sprintf("%s used", formatQuantity(*raw.Quantity)))
	}

	context := strings.TrimSpace(raw.Context)
	if context != "" && len(context) < maxContextLength {
		parts = append(parts, context)
	}

	if actor != ActorPlaceholder {
		parts = append(parts, fmt.Sprintf("by %s", actor))
	}

	if raw.Flags.Any() {
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(flagNames(raw.Flags), ", ")))
	}

	if len(parts) == 0 {
		return "Activity completed"
	}
	return strings.Join(parts, " ")
}

// formatQuantity renders whole quantities without a decimal point.
func formatQuantity(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.1f", q)
}

// flagNames lists the set condition flags in fixed order.
func flagNames(flags model.RecordFlags) []string {
	var names []string
	if flags.Wet {
		names = append(names, "wet")
	}
	if flags.Soiled {
		names = append(names, "soiled")
	}
	if flags.Leaked {
		names = append(names, "leaked")
	}
	return names
}
