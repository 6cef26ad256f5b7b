// Package run contains the pure business logic for pipeline run lifecycle.
// This is part of the Functional Core - no I/O, only pure functions.
package run

// Status represents the possible states of a pipeline run.
type Status string

const (
	StatusTriggered Status = "triggered"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// TriggerSource identifies what initiated a pipeline run.
type TriggerSource string

const (
	SourceScheduled TriggerSource = "scheduled"
	SourceManual    TriggerSource = "manual"
	SourceAPI       TriggerSource = "api"
)

// IsTerminal reports whether the status is final. Terminal runs are
// immutable: the ledger record is never recycled into a new state.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// IsActive reports whether a run in this status holds the single-flight slot.
func (s Status) IsActive() bool {
	return s == StatusTriggered || s == StatusRunning
}

// CanTransition reports whether moving from one status to another is a
// legal lifecycle transition:
//
//	triggered -> running
//	triggered -> failed   (run never started)
//	running   -> succeeded
//	running   -> failed
func CanTransition(from, to Status) bool {
	switch from {
	case StatusTriggered:
		return to == StatusRunning || to == StatusFailed
	case StatusRunning:
		return to == StatusSucceeded || to == StatusFailed
	default:
		return false
	}
}

// InitialStatus returns the status assigned to a run at trigger time.
func InitialStatus() Status {
	return StatusTriggered
}
