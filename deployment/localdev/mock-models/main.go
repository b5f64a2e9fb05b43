// Command mock-models serves the score, rank and classify endpoints of the
// remote model service from the offline lexicon and hashing embedder, so the
// "remote" backends can be exercised locally without GPUs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/miradorstack/review-intel/internal/embed"
	"github.com/miradorstack/review-intel/internal/extractors"
	"github.com/miradorstack/review-intel/internal/utils"
)

type scoreRequest struct {
	Text string `json:"text"`
}

type rankRequest struct {
	Text     string `json:"text"`
	MaxNgram int    `json:"max_ngram"`
	TopN     int    `json:"top_n"`
}

type rankedPhrase struct {
	Phrase    string  `json:"phrase"`
	Relevance float64 `json:"relevance"`
}

type classifyRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

func main() {
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	logger := utils.NewLogger(os.Getenv("LOG_LEVEL"), false).With(slog.String("component", "mock-models"))
	srv := &http.Server{
		Addr:              *addr,
		Handler:           logRequests(logger, newMux(embed.NewHashEmbedder(256))),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("listening", slog.String("address", *addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}

func newMux(embedder embed.Embedder) *http.ServeMux {
	ranker := extractors.NewEmbeddingRanker(embedder)
	scorer := extractors.NewLexiconScorer()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/v1/score", func(w http.ResponseWriter, r *http.Request) {
		var req scoreRequest
		if !decodePost(w, r, &req) {
			return
		}
		score, err := scorer.Score(r.Context(), req.Text)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"compound": score})
	})

	mux.HandleFunc("/v1/rank", func(w http.ResponseWriter, r *http.Request) {
		var req rankRequest
		if !decodePost(w, r, &req) {
			return
		}
		phrases, err := ranker.Rank(r.Context(), req.Text, max(req.MaxNgram, 1), req.TopN)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]rankedPhrase, len(phrases))
		for i, p := range phrases {
			out[i] = rankedPhrase{Phrase: p.Text, Relevance: p.Relevance}
		}
		writeJSON(w, map[string]any{"phrases": out})
	})

	mux.HandleFunc("/v1/classify", func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if !decodePost(w, r, &req) {
			return
		}
		if len(req.Labels) == 0 {
			http.Error(w, "labels are required", http.StatusBadRequest)
			return
		}
		scores, err := classify(r.Context(), embedder, req.Text, req.Labels)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"labels": req.Labels, "scores": scores})
	})
	return mux
}

// classify softmaxes the cosine similarity of text to each label.
func classify(ctx context.Context, e embed.Embedder, text string, labels []string) ([]float64, error) {
	vectors, err := embed.EmbedAll(ctx, e, append([]string{text}, labels...))
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(labels))
	var total float64
	for i := range labels {
		scores[i] = math.Exp(4 * float64(embed.CosineSimilarity(vectors[0], vectors[i+1])))
		total += scores[i]
	}
	for i := range scores {
		scores[i] /= total
	}
	return scores, nil
}

func decodePost(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode error", slog.Any("error", err))
	}
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.status),
			slog.Duration("elapsed", time.Since(start)))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
