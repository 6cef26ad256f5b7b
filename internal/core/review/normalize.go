// Package review contains the pure business logic for review normalization
// and validation. This is part of the Functional Core - no I/O, only pure
// functions.
package review

import (
	"regexp"
	"strings"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// NormalizeText strips HTML tags and collapses runs of whitespace into
// single spaces, trimming the result.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = htmlTagPattern.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// Clean applies the full text pipeline used at the ingestion boundary:
// normalization first, then PII scrubbing.
func Clean(text string) string {
	return ScrubPII(NormalizeText(text))
}
