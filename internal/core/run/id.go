// Package run contains the pure business logic for pipeline run lifecycle.
// This is part of the Functional Core - no I/O, only pure functions.
package run

import (
	"fmt"
	"time"
)

// DayFormat is the calendar-date layout used for run ranges and coverage keys.
const DayFormat = "2006-01-02"

// BuildRunID generates the deterministic run identifier that serves as the
// ledger's natural primary key. It combines the trigger source, the requested
// date range, and the trigger timestamp, so two runs over the same range
// remain distinguishable in history.
func BuildRunID(source TriggerSource, start, end time.Time, triggeredAt time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%d",
		source,
		start.Format(DayFormat),
		end.Format(DayFormat),
		triggeredAt.UTC().Unix(),
	)
}

// RangeKey returns the canonical idempotency key for a requested date range.
// A prior terminal run with the same range key short-circuits a new trigger
// unless the caller forces re-execution.
func RangeKey(start, end time.Time) string {
	return start.Format(DayFormat) + ".." + end.Format(DayFormat)
}
