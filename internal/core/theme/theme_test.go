package theme

import "testing"

func TestClampTruncatesToMaxThemes(t *testing.T) {
	var themes []Theme
	for i := 0; i < 8; i++ {
		themes = append(themes, Theme{Label: "theme", ReviewCount: i})
	}

	got := Clamp(themes)
	if len(got) != MaxThemes {
		t.Fatalf("Clamp() kept %d themes, want %d", len(got), MaxThemes)
	}

	// Sorted by review count descending, keeping the top themes.
	for i := 1; i < len(got); i++ {
		if got[i].ReviewCount > got[i-1].ReviewCount {
			t.Errorf("Clamp() not sorted: index %d has %d after %d", i, got[i].ReviewCount, got[i-1].ReviewCount)
		}
	}
	if got[0].ReviewCount != 7 {
		t.Errorf("Clamp() top theme count = %d, want 7", got[0].ReviewCount)
	}
}

func TestClampTrimsQuotesAndIdeas(t *testing.T) {
	themes := []Theme{{
		Label:       "Payment Failures",
		ReviewCount: 12,
		Quotes:      []string{"a", "b", "c", "d", "e"},
		ActionIdeas: []string{"1", "2", "3", "4"},
	}}

	got := Clamp(themes)
	if len(got[0].Quotes) != MaxQuotes {
		t.Errorf("Clamp() kept %d quotes, want %d", len(got[0].Quotes), MaxQuotes)
	}
	if len(got[0].ActionIdeas) != MaxActionIdeas {
		t.Errorf("Clamp() kept %d action ideas, want %d", len(got[0].ActionIdeas), MaxActionIdeas)
	}
}

func TestClampLeavesInputUntouched(t *testing.T) {
	themes := []Theme{
		{Label: "low", ReviewCount: 1},
		{Label: "high", ReviewCount: 9},
	}
	_ = Clamp(themes)
	if themes[0].Label != "low" {
		t.Error("Clamp() must not reorder the caller's slice")
	}
}

func TestClampEmpty(t *testing.T) {
	if got := Clamp(nil); len(got) != 0 {
		t.Errorf("Clamp(nil) = %v, want empty", got)
	}
}
