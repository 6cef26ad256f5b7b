// Package playstore fetches Android reviews through the Play Store web
// frontend's batchexecute endpoint. There is no official reviews API; this
// speaks the same envelope the store UI uses.
package playstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/review"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/run"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

const (
	defaultBaseURL = "https://play.google.com"
	batchPath      = "/_/PlayStoreUi/data/batchexecute"

	// rpcReviews is the batchexecute method id for review listings.
	rpcReviews = "UsvDTd"

	sortNewest = 2
	pageSize   = 150
)

// Source implements secondary.ReviewSource against the Play Store.
type Source struct {
	baseURL     string
	packageName string
	lang        string
	country     string
	maxPages    int
	httpClient  *http.Client
	log         *zap.SugaredLogger
}

var _ secondary.ReviewSource = (*Source)(nil)

// Config carries the Play Store client settings.
type Config struct {
	BaseURL     string // override for tests
	PackageName string
	Lang        string // defaults to "en"
	Country     string // defaults to "in"
	MaxPages    int
}

// NewSource builds a Play Store client from configuration.
func NewSource(cfg Config, logger *zap.SugaredLogger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}
	if cfg.Country == "" {
		cfg.Country = "in"
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Source{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		packageName: cfg.PackageName,
		lang:        cfg.Lang,
		country:     cfg.Country,
		maxPages:    cfg.MaxPages,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		log:         logger.Named("playstore"),
	}
}

// Platform identifies this source as Android.
func (s *Source) Platform() review.Platform { return review.PlatformAndroid }

// FetchDay pages through newest-first reviews, keeping those posted on the
// requested day. Paging stops when a page's oldest review predates the day.
func (s *Source) FetchDay(ctx context.Context, day string) ([]secondary.RawReview, error) {
	var out []secondary.RawReview
	token := ""

	for page := 0; page < s.maxPages; page++ {
		parsed, nextToken, err := s.fetchPage(ctx, day, token)
		if err != nil {
			return nil, err
		}
		if len(parsed) == 0 {
			break
		}

		pastDay := false
		for _, r := range parsed {
			switch {
			case r.day == day:
				out = append(out, secondary.RawReview{
					Platform: review.PlatformAndroid,
					Rating:   r.rating,
					Text:     r.text,
					Day:      day,
					Raw:      r.raw,
				})
			case r.day < day:
				pastDay = true
			}
		}
		if pastDay || nextToken == "" {
			break
		}
		token = nextToken
	}

	s.log.Infow("fetched play store reviews", "day", day, "count", len(out))
	return out, nil
}

type parsedReview struct {
	rating int
	text   string
	day    string
	raw    string
}

func (s *Source) fetchPage(ctx context.Context, day, token string) ([]parsedReview, string, error) {
	fail := func(err error) ([]parsedReview, string, error) {
		return nil, "", &pipeline.SourceUnavailableError{
			Platform: string(review.PlatformAndroid), Day: day, Err: err,
		}
	}

	endpoint := fmt.Sprintf("%s%s?hl=%s&gl=%s", s.baseURL, batchPath, s.lang, s.country)
	form := url.Values{"f.req": {s.requestPayload(token)}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail(fmt.Errorf("batchexecute returned %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fail(err)
	}

	reviews, nextToken, err := parseBatchResponse(body)
	if err != nil {
		return fail(err)
	}
	return reviews, nextToken, nil
}

// requestPayload builds the f.req envelope for the reviews RPC. The inner
// request is itself a JSON string inside the outer array.
func (s *Source) requestPayload(token string) string {
	tokenJSON := "null"
	if token != "" {
		b, _ := json.Marshal(token)
		tokenJSON = string(b)
	}
	inner := fmt.Sprintf("[null,null,[2,%d,[%d,null,%s]],[%q,7]]",
		sortNewest, pageSize, tokenJSON, s.packageName)
	envelope, _ := json.Marshal([][]any{{rpcReviews, inner, nil, "generic"}})
	return "[" + string(envelope) + "]"
}

// parseBatchResponse unwraps the anti-XSSI prefix and the doubly encoded
// payload: the outer envelope's third element is a JSON string holding the
// review list and the continuation token.
func parseBatchResponse(body []byte) ([]parsedReview, string, error) {
	text := string(body)
	if idx := strings.Index(text, "\n"); idx >= 0 && strings.HasPrefix(text, ")]}'") {
		text = text[idx+1:]
	}

	var outer []json.RawMessage
	if err := json.Unmarshal([]byte(text), &outer); err != nil {
		return nil, "", fmt.Errorf("decode envelope: %w", err)
	}
	if len(outer) == 0 {
		return nil, "", fmt.Errorf("empty envelope")
	}

	var frame []any
	if err := json.Unmarshal(outer[0], &frame); err != nil {
		return nil, "", fmt.Errorf("decode frame: %w", err)
	}
	if len(frame) < 3 {
		return nil, "", fmt.Errorf("short frame")
	}
	payloadText, ok := frame[2].(string)
	if !ok || payloadText == "" {
		// A null payload means the listing is exhausted.
		return nil, "", nil
	}

	var payload []any
	if err := json.Unmarshal([]byte(payloadText), &payload); err != nil {
		return nil, "", fmt.Errorf("decode payload: %w", err)
	}
	if len(payload) == 0 {
		return nil, "", nil
	}

	items, _ := payload[0].([]any)
	reviews := make([]parsedReview, 0, len(items))
	for _, item := range items {
		fields, ok := item.([]any)
		if !ok || len(fields) < 6 {
			continue
		}
		// Review tuple layout: [2] score, [4] content, [5][0] unix seconds.
		rating, ok := asInt(fields[2])
		if !ok {
			continue
		}
		text, _ := fields[4].(string)
		at, ok := fields[5].([]any)
		if !ok || len(at) == 0 {
			continue
		}
		seconds, ok := asInt(at[0])
		if !ok {
			continue
		}

		raw, _ := json.Marshal(item)
		reviews = append(reviews, parsedReview{
			rating: rating,
			text:   text,
			day:    time.Unix(int64(seconds), 0).UTC().Format(run.DayFormat),
			raw:    string(raw),
		})
	}

	nextToken := ""
	if len(payload) > 1 {
		if cont, ok := payload[1].([]any); ok && len(cont) > 1 {
			nextToken, _ = cont[1].(string)
		}
	}
	return reviews, nextToken, nil
}

func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int(f), true
}
