package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultJinaEndpoint = "https://api.jina.ai/v1/embeddings"
	jinaChunkSize       = 25
)

// JinaEmbedder calls the hosted Jina embeddings API under a client-side rate limit.
type JinaEmbedder struct {
	apiKey     string
	model      string
	endpoint   string
	dimensions int
	client     *http.Client
	limiter    *rate.Limiter
}

type jinaEmbedRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Task       string   `json:"task"`
	Dimensions int      `json:"dimensions,omitempty"`
	Truncate   bool     `json:"truncate"`
}

type jinaEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// JinaOption customises a JinaEmbedder.
type JinaOption func(*JinaEmbedder)

// WithJinaEndpoint overrides the API URL.
func WithJinaEndpoint(endpoint string) JinaOption {
	return func(e *JinaEmbedder) {
		if endpoint != "" {
			e.endpoint = endpoint
		}
	}
}

// WithJinaRate sets the request rate in calls per second.
func WithJinaRate(perSecond float64) JinaOption {
	return func(e *JinaEmbedder) {
		if perSecond > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithJinaDimensions requests truncated embeddings.
func WithJinaDimensions(dims int) JinaOption {
	return func(e *JinaEmbedder) { e.dimensions = dims }
}

// NewJinaEmbedder creates an embedder for the given API key.
func NewJinaEmbedder(apiKey, model string, opts ...JinaOption) *JinaEmbedder {
	if model == "" {
		model = "jina-embeddings-v3"
	}
	e := &JinaEmbedder{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultJinaEndpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(750*time.Millisecond), 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Available reports whether an API key is configured.
func (e *JinaEmbedder) Available() bool {
	return e.apiKey != ""
}

// Embed embeds a single text.
func (e *JinaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in chunks, placing results by the returned index.
func (e *JinaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += jinaChunkSize {
		end := min(start+jinaChunkSize, len(texts))
		chunk := texts[start:end]

		resp, err := e.call(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("embed: chunk at %d: %w", start, err)
		}
		for _, item := range resp.Data {
			if item.Index < 0 || item.Index >= len(chunk) {
				return nil, fmt.Errorf("embed: jina returned out-of-range index %d", item.Index)
			}
			results[start+item.Index] = item.Embedding
		}
	}
	for i, vec := range results {
		if vec == nil {
			return nil, fmt.Errorf("embed: missing embedding for index %d", i)
		}
	}
	return results, nil
}

func (e *JinaEmbedder) call(ctx context.Context, input []string) (*jinaEmbedResponse, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	body, err := json.Marshal(jinaEmbedRequest{
		Model:      e.model,
		Input:      input,
		Task:       "text-matching",
		Dimensions: e.dimensions,
		Truncate:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jina request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	var out jinaEmbedResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}
