// Package secondary defines the secondary ports (driven adapters) for the
// application. These are the interfaces through which the application drives
// external systems.
package secondary

import (
	"context"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/review"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/theme"
)

// RawReview is a review as returned by a fetch collaborator, before
// normalization and PII scrubbing.
type RawReview struct {
	Platform review.Platform
	Rating   int
	Title    string
	Text     string
	Day      string // calendar date, YYYY-MM-DD
	Raw      string // source payload as received, for audit
}

// ReviewSource fetches reviews for one platform, one calendar day at a time.
// Transport and rate-limit failures surface as *pipeline.SourceUnavailableError
// so the orchestrator can leave the unit uncovered and retryable.
type ReviewSource interface {
	// Platform identifies which platform this source serves.
	Platform() review.Platform

	// FetchDay returns all reviews published on the given day. A day with
	// zero reviews is a successful fetch, not an error.
	FetchDay(ctx context.Context, day string) ([]RawReview, error)
}

// ThemeClusterer groups reviews into at most five semantic themes.
// Model failures surface as *pipeline.ModelUnavailableError; the orchestrator
// degrades to an empty-themes result rather than failing the run.
type ThemeClusterer interface {
	Cluster(ctx context.Context, reviews []*ReviewRecord) ([]theme.Theme, error)
}

// ReportMeta carries the run context the renderers stamp into documents.
type ReportMeta struct {
	RunID       string
	StartDay    string
	EndDay      string
	GeneratedAt string
	ReviewCount int
}

// ReportRenderer turns a theme analysis into the delivered documents.
type ReportRenderer interface {
	// RenderNote produces the markdown executive pulse note.
	RenderNote(themes []theme.Theme, meta ReportMeta) (string, error)

	// RenderEmail produces the HTML email body.
	RenderEmail(themes []theme.Theme, meta ReportMeta) (string, error)
}

// DeliveryAck acknowledges a delivered report.
type DeliveryAck struct {
	MessageID string
	Recipient string
}

// ReportSender delivers the rendered HTML report. Failures surface as
// *pipeline.DeliveryError and are decoupled from the run status.
type ReportSender interface {
	Send(ctx context.Context, subject, htmlBody, recipient string) (*DeliveryAck, error)
}

// ArtifactStore persists the per-run files generated alongside the ledger:
// raw fetched reviews, the theme analysis, the pulse note, and the email
// body. Artifacts sit outside the store's atomicity boundary - purge removes
// them best-effort after the store transaction commits.
type ArtifactStore interface {
	SaveRawReviews(runID string, reviews []RawReview) (string, error)
	SaveAnalysis(runID string, themes []theme.Theme) (string, error)
	SaveNote(runID string, markdown string) (string, error)
	SaveEmail(runID string, html string) (string, error)

	// RemoveAll deletes every stored artifact. Returns the paths it could
	// not remove alongside the first error encountered.
	RemoveAll() error
}
