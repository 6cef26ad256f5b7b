package filesystem

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/theme"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

const testRunID = "manual-2026-02-09-2026-02-15-1771234200"

func TestSaveArtifactsLayout(t *testing.T) {
	root := t.TempDir()
	store := NewArtifactStore(root)

	rawPath, err := store.SaveRawReviews(testRunID, []secondary.RawReview{
		{Platform: "android", Rating: 2, Text: "slow sync", Day: "2026-02-10"},
	})
	if err != nil {
		t.Fatalf("SaveRawReviews() error = %v", err)
	}
	if want := filepath.Join(root, "raw", testRunID+"_reviews.json"); rawPath != want {
		t.Errorf("raw path = %s, want %s", rawPath, want)
	}

	analysisPath, err := store.SaveAnalysis(testRunID, []theme.Theme{
		{Label: "Sync Issues", ReviewCount: 4, Summary: "Background sync stalls."},
	})
	if err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}
	data, err := os.ReadFile(analysisPath)
	if err != nil {
		t.Fatal(err)
	}
	var themes []theme.Theme
	if err := json.Unmarshal(data, &themes); err != nil {
		t.Fatalf("analysis artifact is not valid JSON: %v", err)
	}
	if len(themes) != 1 || themes[0].Label != "Sync Issues" {
		t.Errorf("round-tripped analysis = %+v", themes)
	}

	notePath, err := store.SaveNote(testRunID, "# Pulse\n")
	if err != nil {
		t.Fatalf("SaveNote() error = %v", err)
	}
	if !strings.HasSuffix(notePath, "_pulse_note.md") {
		t.Errorf("note path = %s", notePath)
	}

	emailPath, err := store.SaveEmail(testRunID, "<html></html>")
	if err != nil {
		t.Fatalf("SaveEmail() error = %v", err)
	}
	if !strings.HasPrefix(emailPath, filepath.Join(root, "processed")) {
		t.Errorf("email path = %s, want under processed/", emailPath)
	}
}

func TestRemoveAllClearsArtifacts(t *testing.T) {
	root := t.TempDir()
	store := NewArtifactStore(root)

	if _, err := store.SaveRawReviews(testRunID, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveNote(testRunID, "note"); err != nil {
		t.Fatal(err)
	}

	if err := store.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}

	for _, dir := range []string{"raw", "processed"} {
		entries, err := os.ReadDir(filepath.Join(root, dir))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("%s still holds %d entries", dir, len(entries))
		}
	}
}

func TestRemoveAllOnEmptyStore(t *testing.T) {
	store := NewArtifactStore(filepath.Join(t.TempDir(), "never-created"))
	if err := store.RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() on missing root error = %v", err)
	}
}
