package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/utils"
)

// ModelClient talks to the remote model service that hosts the sentiment,
// keyphrase and zero-shot models. It satisfies extractors.Scorer,
// extractors.Ranker and classify.Classifier.
type ModelClient struct {
	baseURL      string
	scorePath    string
	rankPath     string
	classifyPath string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// ModelClientConfig configures NewModelClient.
type ModelClientConfig struct {
	BaseURL      string
	ScorePath    string
	RankPath     string
	ClassifyPath string
	Timeout      time.Duration
	RatePerSec   float64
	Burst        int
}

// NewModelClient constructs a client for the configured model service.
func NewModelClient(cfg ModelClientConfig) *ModelClient {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(cfg.Burst, 1))
	}
	return &ModelClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		scorePath:    firstNonEmpty(cfg.ScorePath, "/v1/score"),
		rankPath:     firstNonEmpty(cfg.RankPath, "/v1/rank"),
		classifyPath: firstNonEmpty(cfg.ClassifyPath, "/v1/classify"),
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      limiter,
	}
}

// Score returns the compound polarity of text.
func (c *ModelClient) Score(ctx context.Context, text string) (float64, error) {
	var response struct {
		Compound *float64 `json:"compound"`
	}
	if err := c.postJSON(ctx, c.resolvePath(c.scorePath), map[string]any{"text": text}, &response); err != nil {
		return 0, fmt.Errorf("model service score request failed: %w", err)
	}
	if response.Compound == nil {
		return 0, &utils.Permanent{Err: fmt.Errorf("model service score response has no compound")}
	}
	return *response.Compound, nil
}

// Rank returns up to topN key phrases of text, best first.
func (c *ModelClient) Rank(ctx context.Context, text string, maxNgram, topN int) ([]models.Phrase, error) {
	payload := map[string]any{
		"text":      text,
		"max_ngram": maxNgram,
		"top_n":     topN,
	}
	var response struct {
		Phrases []struct {
			Phrase    string  `json:"phrase"`
			Relevance float64 `json:"relevance"`
		} `json:"phrases"`
	}
	if err := c.postJSON(ctx, c.resolvePath(c.rankPath), payload, &response); err != nil {
		return nil, fmt.Errorf("model service rank request failed: %w", err)
	}

	phrases := make([]models.Phrase, 0, len(response.Phrases))
	for _, p := range response.Phrases {
		if strings.TrimSpace(p.Phrase) == "" {
			continue
		}
		phrases = append(phrases, models.Phrase{Text: p.Phrase, Relevance: p.Relevance})
	}
	if topN > 0 && len(phrases) > topN {
		phrases = phrases[:topN]
	}
	return phrases, nil
}

// Classify ranks labels against text.
func (c *ModelClient) Classify(ctx context.Context, text string, labels []string) ([]models.RankedLabel, error) {
	payload := map[string]any{
		"text":   text,
		"labels": labels,
	}
	var response struct {
		Labels []string  `json:"labels"`
		Scores []float64 `json:"scores"`
	}
	if err := c.postJSON(ctx, c.resolvePath(c.classifyPath), payload, &response); err != nil {
		return nil, fmt.Errorf("model service classify request failed: %w", err)
	}
	if len(response.Labels) != len(response.Scores) {
		return nil, &utils.Permanent{Err: fmt.Errorf("model service classify returned %d labels and %d scores", len(response.Labels), len(response.Scores))}
	}
	ranked := make([]models.RankedLabel, len(response.Labels))
	for i, label := range response.Labels {
		ranked[i] = models.RankedLabel{Label: label, Score: response.Scores[i]}
	}
	return ranked, nil
}

func (c *ModelClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

// postJSON marks client errors as permanent so callers do not retry them.
func (c *ModelClient) postJSON(ctx context.Context, endpoint string, payload any, out any) error {
	if endpoint == "" {
		return &utils.Permanent{Err: fmt.Errorf("model service base URL not configured")}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return &utils.Permanent{Err: fmt.Errorf("marshal payload: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		statusErr := fmt.Errorf("model service returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return &utils.Permanent{Err: statusErr}
		}
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
