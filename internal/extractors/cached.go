package extractors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/miradorstack/review-intel/internal/cache"
)

const scoreKeyPrefix = "review-intel:score:"

// CachedScorer memoises a Scorer's compound scores. Cache failures fall
// through to the inner scorer; only successful scores are stored.
type CachedScorer struct {
	inner  Scorer
	cache  cache.Provider
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedScorer wraps s. A nil provider disables caching.
func NewCachedScorer(s Scorer, provider cache.Provider, ttl time.Duration, logger *slog.Logger) *CachedScorer {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedScorer{inner: s, cache: provider, ttl: ttl, logger: logger}
}

// Score implements Scorer.
func (c *CachedScorer) Score(ctx context.Context, text string) (float64, error) {
	key := ScoreKey(text)
	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		if score, perr := strconv.ParseFloat(string(raw), 64); perr == nil {
			return score, nil
		}
		c.logger.Debug("discarding malformed cached score", slog.String("key", key))
	case !errors.Is(err, cache.ErrCacheMiss):
		c.logger.Debug("score cache read failed", slog.Any("error", err))
	}

	score, err := c.inner.Score(ctx, text)
	if err != nil {
		return 0, err
	}
	if err := c.cache.Set(ctx, key, []byte(strconv.FormatFloat(score, 'g', -1, 64)), c.ttl); err != nil {
		c.logger.Debug("score cache write failed", slog.Any("error", err))
	}
	return score, nil
}

// ScoreKey derives the cache key for text.
func ScoreKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return scoreKeyPrefix + hex.EncodeToString(sum[:16])
}
