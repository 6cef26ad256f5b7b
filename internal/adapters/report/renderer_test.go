package report

import (
	"strings"
	"testing"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/theme"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

func sampleMeta() secondary.ReportMeta {
	return secondary.ReportMeta{
		RunID:       "manual-2026-02-09-2026-02-15-1771234200",
		StartDay:    "2026-02-09",
		EndDay:      "2026-02-15",
		GeneratedAt: "2026-02-16T09:30:00Z",
		ReviewCount: 57,
	}
}

func sampleThemes() []theme.Theme {
	return []theme.Theme{
		{
			Label: "Payment Failures", ReviewCount: 21,
			Summary:     "Checkout errors during peak hours.",
			Quotes:      []string{"payment stuck on processing"},
			ActionIdeas: []string{"Audit the UPI gateway timeout budget"},
		},
		{
			Label: "Slow Startup", ReviewCount: 14,
			Summary:     "Cold start takes too long on older devices.",
			Quotes:      []string{"takes ten seconds to open"},
			ActionIdeas: []string{"Profile cold start on low-end hardware"},
		},
		{Label: "Dark Mode Requests", ReviewCount: 8, Summary: "Recurring feature ask."},
		{Label: "Minor Praise", ReviewCount: 2, Summary: "General positivity."},
	}
}

func TestRenderNote(t *testing.T) {
	r, err := NewRenderer("GROWW")
	if err != nil {
		t.Fatal(err)
	}
	note, err := r.RenderNote(sampleThemes(), sampleMeta())
	if err != nil {
		t.Fatalf("RenderNote() error = %v", err)
	}

	for _, want := range []string{
		"# GROWW Weekly Review Pulse – Week of February 16, 2026",
		"57 reviews analyzed from 2026-02-09 to 2026-02-15",
		"1. **Payment Failures** (21 reviews)",
		"3. **Dark Mode Requests**",
		`"payment stuck on processing"`,
		"1. Audit the UPI gateway timeout budget",
	} {
		if !strings.Contains(note, want) {
			t.Errorf("note missing %q\n%s", want, note)
		}
	}
	// Only the top 3 themes make the note.
	if strings.Contains(note, "Minor Praise") {
		t.Error("note should not include the fourth theme")
	}
}

func TestRenderNoteWithoutThemes(t *testing.T) {
	r, err := NewRenderer("GROWW")
	if err != nil {
		t.Fatal(err)
	}
	note, err := r.RenderNote(nil, sampleMeta())
	if err != nil {
		t.Fatalf("RenderNote() error = %v", err)
	}
	if !strings.Contains(note, "No dominant themes were identified this week.") {
		t.Errorf("empty-analysis note missing fallback text\n%s", note)
	}
	if !strings.Contains(note, "automated analysis was unavailable") {
		t.Errorf("empty-analysis note missing action fallback\n%s", note)
	}
}

func TestRenderEmail(t *testing.T) {
	r, err := NewRenderer("GROWW")
	if err != nil {
		t.Fatal(err)
	}
	html, err := r.RenderEmail(sampleThemes(), sampleMeta())
	if err != nil {
		t.Fatalf("RenderEmail() error = %v", err)
	}

	for _, want := range []string{
		"<h2>GROWW Pulse Report</h2>",
		"Week of February 16, 2026",
		"Payment Failures",
		"(21 reviews)",
		"payment stuck on processing",
		"Audit the UPI gateway timeout budget",
		"2026-02-09 to 2026-02-15",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("email missing %q", want)
		}
	}
	if strings.Contains(html, "Minor Praise") {
		t.Error("email should not include the fourth theme")
	}
}

func TestRenderEmailEscapesMarkup(t *testing.T) {
	r, err := NewRenderer("GROWW")
	if err != nil {
		t.Fatal(err)
	}
	themes := []theme.Theme{{
		Label: "Injection", ReviewCount: 1,
		Summary: `<script>alert("x")</script>`,
	}}
	html, err := r.RenderEmail(themes, sampleMeta())
	if err != nil {
		t.Fatalf("RenderEmail() error = %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("review-derived markup must be escaped")
	}
}
