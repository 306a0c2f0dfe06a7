// Package window derives the active recorded-date search window.
package window

import "time"

// DateLayout is the compact calendar-date format used by the portal's
// recordedDateRange parameter and the checkpoint file.
const DateLayout = "20060102"

// Window is a closed recorded-date range submitted to the portal,
// formatted per DateLayout.
type Window struct {
	Start string
	End   string
}

// New derives the window ending at end: the start sits years earlier on
// the same day of year, clamped to minStart. A February 29 end date with
// no counterpart in the target year falls back to day 28. An unparseable
// end date collapses the start to minStart.
func New(end string, years int, minStart string) Window {
	minT, minErr := time.Parse(DateLayout, minStart)
	endT, endErr := time.Parse(DateLayout, end)
	if endErr != nil || minErr != nil {
		return Window{Start: minStart, End: end}
	}

	year := endT.Year() - years
	if year < minT.Year() {
		year = minT.Year()
	}
	day := endT.Day()
	if endT.Month() == time.February && day == 29 && !isLeap(year) {
		day = 28
	}
	start := time.Date(year, endT.Month(), day, 0, 0, 0, 0, time.UTC)
	if start.Before(minT) {
		start = minT
	}
	return Window{Start: start.Format(DateLayout), End: end}
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
