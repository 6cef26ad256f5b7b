package review

import (
	"strings"
	"testing"
)

func TestScrubPII(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		leaked  []string // substrings that must not survive
		markers []string // placeholders that must appear
	}{
		{
			name:    "email address",
			input:   "contact me at ravi.kumar@example.com for details",
			leaked:  []string{"ravi.kumar@example.com"},
			markers: []string{"[EMAIL]"},
		},
		{
			name:    "url",
			input:   "see https://example.com/help for the guide",
			leaked:  []string{"https://example.com"},
			markers: []string{"[URL]"},
		},
		{
			name:    "phone number",
			input:   "call +91 98765 43210 anytime",
			leaked:  []string{"98765 43210"},
			markers: []string{"[PHONE]"},
		},
		{
			name:    "pan shaped id",
			input:   "my pan is ABCDE1234F and it failed verification",
			leaked:  []string{"ABCDE1234F"},
			markers: []string{"[ID]"},
		},
		{
			name:    "twelve digit id",
			input:   "aadhaar 123456789012 got rejected",
			leaked:  []string{"123456789012"},
			markers: []string{"[ID]"},
		},
		{
			name:  "clean text untouched",
			input: "great app, charts load fast",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScrubPII(tt.input)
			for _, leak := range tt.leaked {
				if strings.Contains(got, leak) {
					t.Errorf("ScrubPII(%q) leaked %q: %q", tt.input, leak, got)
				}
			}
			for _, marker := range tt.markers {
				if !strings.Contains(got, marker) {
					t.Errorf("ScrubPII(%q) missing marker %q: %q", tt.input, marker, got)
				}
			}
			if len(tt.leaked) == 0 && got != tt.input {
				t.Errorf("ScrubPII(%q) modified clean text: %q", tt.input, got)
			}
		})
	}
}

func TestScrubPIIEmpty(t *testing.T) {
	if got := ScrubPII(""); got != "" {
		t.Errorf("ScrubPII(\"\") = %q, want empty", got)
	}
}
