// Package calendar produces the month grid the booking widget renders and
// decides which days are selectable. The grid is a fixed seven-column layout
// starting on Sunday; weekends and past dates are never bookable.
package calendar

import "time"

// MonthLabel formats a displayed month as "January 2006".
func MonthLabel(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// DayGrid returns the cells of a Sunday-based month grid: leading zero-value
// entries equal to the weekday index of the 1st, then one entry per calendar
// day. Callers detect blanks with IsZero.
func DayGrid(year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of the next month is the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)

	cells := make([]time.Time, 0, int(first.Weekday())+last.Day())
	for i := 0; i < int(first.Weekday()); i++ {
		cells = append(cells, time.Time{})
	}
	for d := 1; d <= last.Day(); d++ {
		cells = append(cells, time.Date(year, month, d, 0, 0, 0, 0, time.UTC))
	}
	return cells
}

// Advance moves the displayed month by direction (+1 or -1), wrapping the
// year at the December/January boundary. There are no bounds on year.
func Advance(month time.Month, year int, direction int) (time.Month, int) {
	next := int(month) + direction
	switch {
	case next < int(time.January):
		return time.December, year - 1
	case next > int(time.December):
		return time.January, year + 1
	default:
		return time.Month(next), year
	}
}

// Selectable reports whether a grid day may be picked: not strictly before
// today (date-only comparison) and not a weekend.
func Selectable(date, today time.Time) bool {
	if date.IsZero() {
		return false
	}
	if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		return false
	}
	return !dateOnly(date).Before(dateOnly(today))
}

// DefaultSelection picks the initial draft date: today, shifted to the next
// Monday when today falls on a weekend, so the draft never starts disabled.
func DefaultSelection(today time.Time) time.Time {
	d := dateOnly(today)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}

// dateOnly normalizes to midnight UTC of t's calendar day, so dates from
// different zones (UTC grid cells, a local server clock) compare as days
// rather than instants.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
