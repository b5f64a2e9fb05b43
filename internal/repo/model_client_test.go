package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/miradorstack/review-intel/internal/utils"
)

// roundTripFunc stubs the model service transport.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(rt roundTripFunc) *http.Client {
	return &http.Client{Transport: rt}
}

func jsonResponse(status int, payload any) *http.Response {
	data, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     make(http.Header),
	}
}

func TestModelClientScore(t *testing.T) {
	client := NewModelClient(ModelClientConfig{BaseURL: "https://models.example.com/base/", Timeout: time.Second})
	client.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/base/v1/score" {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["text"] != "the food was great" {
			t.Fatalf("unexpected text %q", body["text"])
		}
		return jsonResponse(http.StatusOK, map[string]any{"compound": 0.62}), nil
	}))

	score, err := client.Score(context.Background(), "the food was great")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 0.62 {
		t.Fatalf("expected 0.62, got %v", score)
	}
}

func TestModelClientRank(t *testing.T) {
	client := NewModelClient(ModelClientConfig{BaseURL: "https://models.example.com", Timeout: time.Second})
	client.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["max_ngram"].(float64) != 2 || body["top_n"].(float64) != 2 {
			t.Fatalf("unexpected request %v", body)
		}
		return jsonResponse(http.StatusOK, map[string]any{
			"phrases": []map[string]any{
				{"phrase": "food", "relevance": 0.7},
				{"phrase": " ", "relevance": 0.6},
				{"phrase": "great", "relevance": 0.4},
				{"phrase": "was", "relevance": 0.1},
			},
		}), nil
	}))

	phrases, err := client.Rank(context.Background(), "the food was great", 2, 2)
	if err != nil {
		t.Fatalf("rank: %v", err)
	}
	if len(phrases) != 2 || phrases[0].Text != "food" || phrases[1].Text != "great" {
		t.Fatalf("unexpected phrases %+v", phrases)
	}
}

func TestModelClientClassify(t *testing.T) {
	client := NewModelClient(ModelClientConfig{BaseURL: "https://models.example.com", Timeout: time.Second})
	client.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, map[string]any{
			"labels": []string{"service", "food"},
			"scores": []float64{0.9, 0.1},
		}), nil
	}))

	ranked, err := client.Classify(context.Background(), "slow service", []string{"food", "service"})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if ranked[0].Label != "service" || ranked[0].Score != 0.9 {
		t.Fatalf("unexpected ranking %+v", ranked)
	}
}

func TestModelClientErrorClassification(t *testing.T) {
	status := http.StatusBadRequest
	client := NewModelClient(ModelClientConfig{BaseURL: "https://models.example.com", Timeout: time.Second})
	client.httpClient = newTestClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(status, map[string]any{"error": "nope"}), nil
	}))

	_, err := client.Score(context.Background(), "text")
	var perm *utils.Permanent
	if !errors.As(err, &perm) {
		t.Fatalf("expected permanent error for 400, got %v", err)
	}

	status = http.StatusServiceUnavailable
	_, err = client.Score(context.Background(), "text")
	if err == nil || errors.As(err, &perm) {
		t.Fatalf("expected retryable error for 503, got %v", err)
	}

	unconfigured := NewModelClient(ModelClientConfig{})
	if _, err := unconfigured.Score(context.Background(), "text"); !errors.As(err, &perm) {
		t.Fatalf("expected permanent error without base URL, got %v", err)
	}
}
