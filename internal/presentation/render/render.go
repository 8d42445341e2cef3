package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/andreero0/nestsync-timeline/internal/application/timeline"
	"github.com/andreero0/nestsync-timeline/internal/core/model"
)

// Renderer prints timeline state as a period-grouped text view. It consumes
// the derived periods as-is; all grouping decisions live in the engine.
type Renderer struct {
	width      int
	timeFormat string
}

// NewRenderer creates a renderer sized to the terminal, falling back to a
// fixed width when stdout is not a tty.
func NewRenderer(timeFormat string) *Renderer {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 60 {
		width = 100
	}
	if timeFormat == "" {
		timeFormat = "15:04"
	}
	return &Renderer{width: width, timeFormat: timeFormat}
}

// Render writes the period-grouped timeline.
func (r *Renderer) Render(w io.Writer, state timeline.State) {
	if state.Loading && len(state.Events) == 0 {
		fmt.Fprintln(w, "Loading timeline...")
		return
	}

	if state.Err != nil {
		fmt.Fprintf(w, "! %v\n\n", state.Err)
	}

	if len(state.Periods) == 0 {
		fmt.Fprintln(w, "No activity recorded.")
		return
	}

	for _, period := range state.Periods {
		r.renderPeriod(w, period)
	}

	if !state.LastUpdated.IsZero() {
		fmt.Fprintf(w, "Updated %s", state.LastUpdated.Format("15:04:05"))
		if state.HasMore {
			fmt.Fprint(w, " · more available")
		}
		fmt.Fprintln(w)
	}
}

// renderPeriod prints one period header plus its event rows.
func (r *Renderer) renderPeriod(w io.Writer, period model.TimePeriod) {
	header := fmt.Sprintf("%s (%d)", period.Label, len(period.Events))
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", min(r.width, runewidth.StringWidth(header))))

	titleWidth := r.width * 2 / 5
	for _, event := range period.Events {
		ts := event.Timestamp.Format(r.timeFormat)
		title := padString(event.Title, titleWidth)
		details := runewidth.Truncate(event.Details, r.width-titleWidth-len(ts)-4, "…")
		fmt.Fprintf(w, "%s  %s  %s\n", ts, title, details)
	}
	fmt.Fprintln(w)
}

// padString pads or truncates to a display width, handling wide runes.
func padString(s string, width int) string {
	actual := runewidth.StringWidth(s)
	if actual > width {
		return runewidth.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-actual)
}
