// Package review contains the pure business logic for review normalization
// and validation. This is part of the Functional Core - no I/O, only pure
// functions.
package review

import "fmt"

// Platform identifies the app store a review originated from.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// AllPlatforms lists every platform the pipeline fetches, in fetch order.
func AllPlatforms() []Platform {
	return []Platform{PlatformAndroid, PlatformIOS}
}

// ParsePlatform validates a platform string from an external boundary.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformAndroid, PlatformIOS:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Review is the normalized, scrubbed review fact as it enters the store.
// Identity is the (Platform, Text, Day) triple; a second insert with the
// same triple is a no-op at the storage layer.
type Review struct {
	Platform Platform
	Rating   int
	Title    string
	Text     string
	Day      string // calendar date, YYYY-MM-DD
	Raw      string // opaque source payload kept for audit
}

// Validate checks the constraints that make a review storable.
func (r Review) Validate() error {
	if _, err := ParsePlatform(string(r.Platform)); err != nil {
		return err
	}
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("rating %d out of range 1-5", r.Rating)
	}
	if r.Text == "" {
		return fmt.Errorf("review text is empty")
	}
	if r.Day == "" {
		return fmt.Errorf("review date is empty")
	}
	return nil
}
