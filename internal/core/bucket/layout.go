package bucket

import "github.com/andreero0/nestsync-timeline/internal/core/model"

// LayoutCalculator fills in rendering offsets on derived periods. The
// bucketing algorithm itself never touches layout; renderers opt in through
// this adapter so the core stays headless.
type LayoutCalculator interface {
	Apply(periods []model.TimePeriod) []model.TimePeriod
}

// FixedRowLayout computes vertical offsets from a fixed row height and a
// fixed per-period header height.
type FixedRowLayout struct {
	RowHeight    int
	HeaderHeight int
}

// DefaultLayout matches the row metrics of the reference renderer.
func DefaultLayout() FixedRowLayout {
	return FixedRowLayout{RowHeight: 72, HeaderHeight: 40}
}

// Apply sets StartY and Height on each period in display order. Input is
// not mutated; a copy is returned.
func (l FixedRowLayout) Apply(periods []model.TimePeriod) []model.TimePeriod {
	out := make([]model.TimePeriod, len(periods))
	copy(out, periods)

	y := 0
	for i := range out {
		out[i].StartY = y
		out[i].Height = l.HeaderHeight + l.RowHeight*len(out[i].Events)
		y += out[i].Height
	}
	return out
}

// EventOffset returns the Y offset of the event with the given id inside
// laid-out periods. The second result is false when the id is absent.
func (l FixedRowLayout) EventOffset(periods []model.TimePeriod, eventID string) (int, bool) {
	for _, period := range periods {
		for i, event := range period.Events {
			if event.ID == eventID {
				return period.StartY + l.HeaderHeight + l.RowHeight*i, true
			}
		}
	}
	return 0, false
}
