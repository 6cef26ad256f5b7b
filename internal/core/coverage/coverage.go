// Package coverage contains the pure date-range arithmetic behind the
// incremental fetch tracker. This is part of the Functional Core - no I/O,
// only pure functions.
package coverage

import "time"

// DayFormat is the calendar-date layout for coverage keys.
const DayFormat = "2006-01-02"

// DaysInRange returns every calendar date in the closed range [start, end]
// as YYYY-MM-DD strings, ascending. An inverted range yields nil.
func DaysInRange(start, end time.Time) []string {
	start = truncateToDay(start)
	end = truncateToDay(end)
	if end.Before(start) {
		return nil
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DayFormat))
	}
	return days
}

// MissingDays returns the ordered complement of the covered set within the
// closed range [start, end]: each date is included if and only if no
// coverage fact exists for it.
func MissingDays(start, end time.Time, covered map[string]bool) []string {
	var missing []string
	for _, day := range DaysInRange(start, end) {
		if !covered[day] {
			missing = append(missing, day)
		}
	}
	return missing
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
