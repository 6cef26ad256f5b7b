// Package run contains the pure business logic for pipeline run lifecycle.
// This is part of the Functional Core - no I/O, only pure functions.
package run

import "time"

// Counts captures the result figures recorded on a successful run.
type Counts struct {
	ReviewsProcessed int
	ThemesIdentified int
}

// TransitionResult contains the result of a status transition.
// This is a value object that captures both the new status and any
// side effects (like setting the completion timestamp).
type TransitionResult struct {
	NewStatus    Status
	StartedAt    *time.Time // Set when transitioning to running
	CompletedAt  *time.Time // Set when transitioning to a terminal status
	ErrorMessage string     // Set when transitioning to failed
}

// ApplyStart captures the business rule for advancing a run to running.
// The caller passes the current time to enable testing.
func ApplyStart(now time.Time) TransitionResult {
	return TransitionResult{
		NewStatus: StatusRunning,
		StartedAt: &now,
	}
}

// ApplyComplete captures the business rule for a successful finish:
// the completion timestamp is set alongside the final counts.
func ApplyComplete(now time.Time) TransitionResult {
	return TransitionResult{
		NewStatus:   StatusSucceeded,
		CompletedAt: &now,
	}
}

// ApplyFail captures the business rule for a failed run. Failure is also
// a completion: the completion timestamp is recorded with the error message.
func ApplyFail(message string, now time.Time) TransitionResult {
	return TransitionResult{
		NewStatus:    StatusFailed,
		CompletedAt:  &now,
		ErrorMessage: message,
	}
}
