// Package llm clusters reviews into semantic themes through an
// OpenAI-compatible chat completions API.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ItRachii/weekly-app-review-pulse/internal/core/pipeline"
	"github.com/ItRachii/weekly-app-review-pulse/internal/core/theme"
	"github.com/ItRachii/weekly-app-review-pulse/internal/ports/secondary"
)

const (
	defaultEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultModel    = "gpt-4o-mini"

	// sampleLimit caps how many reviews go into the prompt. Beyond this the
	// marginal theme signal does not justify the token cost.
	sampleLimit = 100
)

const systemPrompt = "You are a deterministic NLP assistant."

const clusteringPrompt = `You are an expert NLP engineer. Your task is to analyze a list of user app reviews and group them into at most 5 semantic themes.

### Rules:
1. Semantic Grouping: Group similar feedback (e.g., UI issues, payment failures, app performance).
2. Labels: Use concise labels (2-4 words, e.g., "Payment Gateway Failures").
3. Exclusivity: Ensure themes do not overlap.
4. Coverage: Every major feedback point should fall into one of these 5 categories.
5. Prioritization: Focus on the most frequent and impactful themes.
6. Evidence: For each theme include up to 3 verbatim high-signal quotes and up to 3 concrete action ideas.

### Input Reviews:
%s

### Output Format:
Return a JSON object with the following structure:
{
  "themes": [
    {
      "label": "Theme Label",
      "review_count": 12,
      "summary": "Brief explanation of what users are saying about this theme.",
      "high_signal_quotes": ["quote"],
      "action_ideas": ["action"]
    }
  ]
}

IMPORTANT: Maximum 5 themes. If more exist, merge the least frequent ones into a 'Miscellaneous' category or the closest existing theme.`

// Clusterer implements secondary.ThemeClusterer backed by a chat model.
type Clusterer struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

var _ secondary.ThemeClusterer = (*Clusterer)(nil)

// Config carries the chat completions settings.
type Config struct {
	Endpoint string
	Model    string
	APIKey   string
}

// NewClusterer builds a clusterer from configuration.
func NewClusterer(cfg Config, logger *zap.SugaredLogger) *Clusterer {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Clusterer{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        logger.Named("llm"),
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type themeOutput struct {
	Themes []theme.Theme `json:"themes"`
}

// Cluster sends a review sample to the model and parses the themed result.
// All transport and parse failures come back as *pipeline.ModelUnavailableError.
func (c *Clusterer) Cluster(ctx context.Context, reviews []*secondary.ReviewRecord) ([]theme.Theme, error) {
	if len(reviews) == 0 {
		return nil, nil
	}
	if c.apiKey == "" {
		return nil, &pipeline.ModelUnavailableError{Err: fmt.Errorf("api key not configured")}
	}

	sample := reviews
	if len(sample) > sampleLimit {
		sample = sample[:sampleLimit]
	}
	var sb strings.Builder
	for _, r := range sample {
		fmt.Fprintf(&sb, "- [%d*] %s: %s\n", r.Rating, r.Title, r.Text)
	}

	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": fmt.Sprintf(clusteringPrompt, sb.String())},
		},
		"temperature":     0.2,
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, &pipeline.ModelUnavailableError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &pipeline.ModelUnavailableError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &pipeline.ModelUnavailableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &pipeline.ModelUnavailableError{
			Err: fmt.Errorf("chat completions %s: %s", resp.Status, strings.TrimSpace(string(payload))),
		}
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, &pipeline.ModelUnavailableError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(chat.Choices) == 0 {
		return nil, &pipeline.ModelUnavailableError{Err: fmt.Errorf("response has no choices")}
	}

	var parsed themeOutput
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &parsed); err != nil {
		return nil, &pipeline.ModelUnavailableError{Err: fmt.Errorf("parse themes: %w", err)}
	}

	clamped := theme.Clamp(parsed.Themes)
	c.log.Infow("clustered reviews", "reviews", len(sample), "themes", len(clamped))
	return clamped, nil
}
