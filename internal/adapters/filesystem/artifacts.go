// Package filesystem stores the per-run artifact files next to the ledger:
// raw fetched reviews, the theme analysis, the pulse note, and the email body.
package filesystem

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/theme"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

const (
	rawDir       = "raw"
	processedDir = "processed"
)

// ArtifactStore implements secondary.ArtifactStore under a single data root.
// Artifacts sit outside the store's transaction boundary: writes are
// best-effort durable, removal reports partial failures.
type ArtifactStore struct {
	root string
}

var _ secondary.ArtifactStore = (*ArtifactStore)(nil)

// NewArtifactStore creates the store rooted at dataDir.
func NewArtifactStore(dataDir string) *ArtifactStore {
	return &ArtifactStore{root: dataDir}
}

// SaveRawReviews writes the fetched payloads for audit.
func (s *ArtifactStore) SaveRawReviews(runID string, reviews []secondary.RawReview) (string, error) {
	return s.writeJSON(rawDir, runID+"_reviews.json", reviews)
}

// SaveAnalysis writes the clustered theme output.
func (s *ArtifactStore) SaveAnalysis(runID string, themes []theme.Theme) (string, error) {
	return s.writeJSON(processedDir, runID+"_theme_analysis.json", themes)
}

// SaveNote writes the markdown pulse note.
func (s *ArtifactStore) SaveNote(runID string, markdown string) (string, error) {
	return s.writeFile(processedDir, runID+"_pulse_note.md", []byte(markdown))
}

// SaveEmail writes the HTML email body.
func (s *ArtifactStore) SaveEmail(runID string, html string) (string, error) {
	return s.writeFile(processedDir, runID+"_email.html", []byte(html))
}

// RemoveAll deletes every stored artifact, continuing past individual
// failures and reporting them together.
func (s *ArtifactStore) RemoveAll() error {
	var errs []error
	for _, dir := range []string{rawDir, processedDir} {
		path := filepath.Join(s.root, dir)
		entries, err := os.ReadDir(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		for _, entry := range entries {
			target := filepath.Join(path, entry.Name())
			if err := os.RemoveAll(target); err != nil {
				errs = append(errs, fmt.Errorf("remove %s: %w", target, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *ArtifactStore) writeJSON(dir, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	return s.writeFile(dir, name, data)
}

func (s *ArtifactStore) writeFile(dir, name string, data []byte) (string, error) {
	path := filepath.Join(s.root, dir)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	target := filepath.Join(path, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}
