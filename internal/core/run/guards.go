// Package run contains the pure business logic for pipeline run lifecycle.
// This is part of the Functional Core - no I/O, only pure functions.
package run

import (
	"fmt"
	"strings"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CanAdmit evaluates the single-flight rule for a new trigger.
// Rule: at most one run may be in triggered or running at any instant.
func CanAdmit(activeRunID string) GuardResult {
	if activeRunID != "" {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("pipeline busy: run %s is still active", activeRunID),
		}
	}
	return GuardResult{Allowed: true}
}

// CanPurge evaluates whether destructive maintenance may proceed.
// Rule: purge is refused while any run is non-terminal.
func CanPurge(activeRunID string) GuardResult {
	if activeRunID != "" {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("purge blocked: run %s is still active", activeRunID),
		}
	}
	return GuardResult{Allowed: true}
}

// PurgeConfirmToken is the confirmation string required by the
// administrative purge surface.
const PurgeConfirmToken = "delete"

// CanConfirmPurge checks the explicit confirmation token supplied by the
// operator before any data is destroyed. The comparison is case-insensitive.
func CanConfirmPurge(token string) GuardResult {
	if !strings.EqualFold(token, PurgeConfirmToken) {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("purge requires confirmation token %q", PurgeConfirmToken),
		}
	}
	return GuardResult{Allowed: true}
}
