// Package theme contains the pure business rules for clustered review
// themes. This is part of the Functional Core - no I/O, only pure functions.
package theme

import "sort"

// Limits on what a clustering result may carry. Anything beyond these is
// truncated, never rejected: clustering is best-effort and its output is
// advisory.
const (
	MaxThemes      = 5
	MaxQuotes      = 3
	MaxActionIdeas = 3
)

// Theme is one semantic cluster of review feedback.
type Theme struct {
	Label       string   `json:"label"`
	ReviewCount int      `json:"review_count"`
	Summary     string   `json:"summary"`
	Quotes      []string `json:"high_signal_quotes,omitempty"`
	ActionIdeas []string `json:"action_ideas,omitempty"`
}

// Clamp enforces the theme limits: themes are sorted by review count
// descending, truncated to MaxThemes, and each theme's quotes and action
// ideas are trimmed to their caps. The input slice is not modified.
func Clamp(themes []Theme) []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReviewCount > out[j].ReviewCount
	})
	if len(out) > MaxThemes {
		out = out[:MaxThemes]
	}

	for i := range out {
		if len(out[i].Quotes) > MaxQuotes {
			out[i].Quotes = out[i].Quotes[:MaxQuotes]
		}
		if len(out[i].ActionIdeas) > MaxActionIdeas {
			out[i].ActionIdeas = out[i].ActionIdeas[:MaxActionIdeas]
		}
	}
	return out
}
