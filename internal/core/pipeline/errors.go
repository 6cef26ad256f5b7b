// Package pipeline defines the error taxonomy shared across the run
// orchestration and persistence core.
package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel guard rejections. These are surfaced synchronously to the trigger
// caller and never leave state behind.
var (
	// ErrPipelineBusy rejects a trigger while another run holds the
	// single-flight slot.
	ErrPipelineBusy = errors.New("pipeline busy: another run is active")

	// ErrPurgeBlocked rejects destructive maintenance while a run is active.
	ErrPurgeBlocked = errors.New("purge blocked: a run is active")

	// ErrInvalidTrigger rejects a malformed trigger request before any run
	// is admitted.
	ErrInvalidTrigger = errors.New("invalid trigger request")

	// ErrRunNotFound is returned by ledger lookups for unknown run IDs.
	ErrRunNotFound = errors.New("run not found")
)

// SourceUnavailableError marks a per-unit fetch failure. The affected
// coverage unit stays unmarked, so the unit is retried on the next trigger
// for an overlapping range.
type SourceUnavailableError struct {
	Platform string
	Day      string
	Err      error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable for %s on %s: %v", e.Platform, e.Day, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// ModelUnavailableError marks a clustering failure. The orchestrator
// degrades to an empty-themes result instead of failing the run.
type ModelUnavailableError struct {
	Err error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("clustering model unavailable: %v", e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// DeliveryError marks a failed report delivery. Delivery is decoupled from
// report generation, so it is reported but does not affect the run status.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// StoreIntegrityError marks a uniqueness or transaction violation in the
// persistence layer. Always surfaced, never silently swallowed - the only
// intentional swallow is the duplicate-insert no-op during ingestion.
type StoreIntegrityError struct {
	Op  string
	Err error
}

func (e *StoreIntegrityError) Error() string {
	return fmt.Sprintf("store integrity violation in %s: %v", e.Op, e.Err)
}

func (e *StoreIntegrityError) Unwrap() error { return e.Err }
