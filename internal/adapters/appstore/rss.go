// Package appstore fetches iOS reviews from the public iTunes customer
// reviews RSS feed.
package appstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/review"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

const defaultBaseURL = "https://itunes.apple.com"

// Source implements secondary.ReviewSource backed by the iTunes RSS feed.
// The feed is paginated newest-first without date filtering, so FetchDay
// pulls pages and filters entries down to the requested day.
type Source struct {
	baseURL    string
	appID      string
	country    string
	maxPages   int
	httpClient *http.Client
	log        *zap.SugaredLogger
}

var _ secondary.ReviewSource = (*Source)(nil)

// Config carries the App Store feed settings.
type Config struct {
	BaseURL  string // override for tests; defaults to the public feed
	AppID    string
	Country  string // two-letter storefront, e.g. "in"
	MaxPages int
}

// NewSource builds a feed client from configuration.
func NewSource(cfg Config, logger *zap.SugaredLogger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Country == "" {
		cfg.Country = "in"
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Source{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		appID:      cfg.AppID,
		country:    cfg.Country,
		maxPages:   cfg.MaxPages,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		log:        logger.Named("appstore"),
	}
}

// Platform identifies this source as iOS.
func (s *Source) Platform() review.Platform { return review.PlatformIOS }

// feed mirrors the subset of the RSS JSON rendering the fetcher reads.
// App-info entries carry no im:rating and are skipped.
type feed struct {
	Feed struct {
		Entry []feedEntry `json:"entry"`
	} `json:"feed"`
}

type feedEntry struct {
	Rating  *label `json:"im:rating"`
	Title   label  `json:"title"`
	Content label  `json:"content"`
	Updated label  `json:"updated"`
}

type label struct {
	Label string `json:"label"`
}

// FetchDay walks the feed newest-first, keeping entries whose updated date
// falls on the requested day. Paging stops once a page yields only entries
// older than the day, since later pages are older still.
func (s *Source) FetchDay(ctx context.Context, day string) ([]secondary.RawReview, error) {
	var out []secondary.RawReview

	for page := 1; page <= s.maxPages; page++ {
		entries, err := s.fetchPage(ctx, day, page)
		if err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			break
		}

		pastDay := false
		for _, entry := range entries {
			if entry.Rating == nil {
				continue // app metadata entry
			}
			entryDay, err := parseEntryDay(entry.Updated.Label)
			if err != nil {
				s.log.Debugw("skipping entry with unparseable date",
					"value", entry.Updated.Label, "error", err)
				continue
			}
			if entryDay < day {
				pastDay = true
				continue
			}
			if entryDay != day {
				continue
			}

			rating, err := strconv.Atoi(entry.Rating.Label)
			if err != nil {
				continue
			}
			raw, _ := json.Marshal(entry)
			out = append(out, secondary.RawReview{
				Platform: review.PlatformIOS,
				Rating:   rating,
				Title:    entry.Title.Label,
				Text:     entry.Content.Label,
				Day:      day,
				Raw:      string(raw),
			})
		}
		if pastDay {
			break
		}
	}

	s.log.Infow("fetched app store reviews", "day", day, "count", len(out))
	return out, nil
}

func (s *Source) fetchPage(ctx context.Context, day string, page int) ([]feedEntry, error) {
	url := fmt.Sprintf("%s/%s/rss/customerreviews/page=%d/id=%s/sortby=mostrecent/json",
		s.baseURL, s.country, page, s.appID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &pipeline.SourceUnavailableError{
			Platform: string(review.PlatformIOS), Day: day, Err: err,
		}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &pipeline.SourceUnavailableError{
			Platform: string(review.PlatformIOS), Day: day, Err: err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &pipeline.SourceUnavailableError{
			Platform: string(review.PlatformIOS),
			Day:      day,
			Err:      fmt.Errorf("feed returned %s: %s", resp.Status, strings.TrimSpace(string(body))),
		}
	}

	var parsed feed
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &pipeline.SourceUnavailableError{
			Platform: string(review.PlatformIOS),
			Day:      day,
			Err:      fmt.Errorf("decode feed page %d: %w", page, err),
		}
	}
	return parsed.Feed.Entry, nil
}

// parseEntryDay reduces an RSS timestamp to its UTC calendar day.
// The feed emits RFC3339 with either Z or a numeric offset.
func parseEntryDay(value string) (string, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC().Format(run.DayFormat), nil
		}
	}
	return "", fmt.Errorf("unrecognized timestamp %q", value)
}
