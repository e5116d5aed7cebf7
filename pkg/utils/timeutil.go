package utils

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on the CLI and the API.
const DateLayout = "2006-01-02"

// LoadLocation loads an exchange time zone, falling back to UTC when the tz
// database is not available.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseDate parses a "2006-01-02" date as a calendar date (midnight UTC).
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// FormatDate formats a calendar date as "2006-01-02".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DayKey returns the calendar date of t as seen in loc, expressed as midnight
// UTC. Timestamps from the price provider are session opens in UTC; keying
// them this way keeps an Asian session on its local date.
func DayKey(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in loc.
func Today(loc *time.Location) time.Time {
	return DayKey(time.Now(), loc)
}

// YearToDate returns 1 January of the year of now through now, as calendar dates.
func YearToDate(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, end
}

// PaddedWindow widens the half-open range [start, end) by padDays on both
// sides and returns the [from, to) instant range to request from the provider.
func PaddedWindow(start, end time.Time, padDays int) (time.Time, time.Time) {
	if padDays < 0 {
		padDays = 0
	}
	from := start.AddDate(0, 0, -padDays)
	to := end.AddDate(0, 0, padDays)
	return from, to
}
