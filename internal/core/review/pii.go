// Package review contains the pure business logic for review normalization
// and validation. This is part of the Functional Core - no I/O, only pure
// functions.
package review

import "regexp"

// Deterministic regex-class PII stripping. No learned model: every pattern
// class is replaced with a fixed placeholder token so downstream clustering
// and reporting never see raw identifiers.
var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	urlPattern   = regexp.MustCompile(`https?://(?:[-\w.]|(?:%[\da-fA-F]{2}))+`)
	phonePattern = regexp.MustCompile(`\+?\d{1,4}?[-.\s]?\(?\d{1,3}?\)?[-.\s]?\d{1,4}[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)
	// PAN-shaped and 12-digit national-ID-shaped tokens.
	idPattern = regexp.MustCompile(`\b[A-Z]{5}[0-9]{4}[A-Z]\b|\b\d{12}\b`)
)

// ScrubPII masks emails, URLs, phone numbers, and national-ID-shaped tokens
// with placeholder markers. Order matters: URLs and IDs are masked before the
// broad phone pattern so it cannot eat their digits.
func ScrubPII(text string) string {
	if text == "" {
		return ""
	}
	text = emailPattern.ReplaceAllString(text, "[EMAIL]")
	text = urlPattern.ReplaceAllString(text, "[URL]")
	text = idPattern.ReplaceAllString(text, "[ID]")
	text = phonePattern.ReplaceAllString(text, "[PHONE]")
	return text
}
