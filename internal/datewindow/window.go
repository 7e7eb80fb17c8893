// Package datewindow decides which calendar dates the date scroller
// shows around the selected departure date. The policy is configuration
// rather than a constant: past revisions of this screen disagreed on
// past-date inclusion and window width, so both are parameters.
package datewindow

import "time"

const dateLayout = "2006-01-02"

type Config struct {
	// IncludePast keeps dates before today in the window.
	IncludePast bool
	// WindowDays is how many days past the selected date to show.
	WindowDays int
}

func DefaultConfig() Config {
	return Config{
		IncludePast: false,
		WindowDays:  14,
	}
}

// Dates lists the ISO dates from the window start through the selected
// date plus WindowDays. With IncludePast off the window starts at
// max(today, selected); otherwise at the selected date. An unparsable
// selected date yields nil.
func (c Config) Dates(selected string, today time.Time) []string {
	sel, err := time.Parse(dateLayout, selected)
	if err != nil {
		return nil
	}

	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	start := day(sel)
	if !c.IncludePast {
		if t := day(today); t.After(start) {
			start = t
		}
	}
	end := day(sel).AddDate(0, 0, c.WindowDays)

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(dateLayout))
	}
	return dates
}
