package extractors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/miradorstack/review-intel/internal/cache"
)

type countingScorer struct {
	calls int
	err   error
}

func (s *countingScorer) Score(_ context.Context, text string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return LexiconCompound(text), nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenCache) Close() error { return nil }

func TestCachedScorerMemoises(t *testing.T) {
	ctx := context.Background()
	inner := &countingScorer{}
	store := cache.NewMemoryProvider()
	scorer := NewCachedScorer(inner, store, time.Hour, nil)

	first, err := scorer.Score(ctx, "the waiter was rude")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	second, err := scorer.Score(ctx, "the waiter was rude")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if first != second {
		t.Fatalf("cached score differs: %v vs %v", first, second)
	}
	if inner.calls != 1 {
		t.Fatalf("expected one backend call, got %d", inner.calls)
	}
	if _, err := store.Get(ctx, ScoreKey("the waiter was rude")); err != nil {
		t.Fatalf("expected key in cache: %v", err)
	}
}

func TestCachedScorerSkipsFailures(t *testing.T) {
	ctx := context.Background()
	inner := &countingScorer{err: errors.New("backend down")}
	store := cache.NewMemoryProvider()
	scorer := NewCachedScorer(inner, store, time.Hour, nil)

	if _, err := scorer.Score(ctx, "slow service"); err == nil {
		t.Fatalf("expected backend error")
	}
	if store.Len() != 0 {
		t.Fatalf("failed score must not be cached")
	}
}

func TestCachedScorerFallsThroughBrokenCache(t *testing.T) {
	inner := &countingScorer{}
	scorer := NewCachedScorer(inner, brokenCache{}, time.Hour, nil)
	score, err := scorer.Score(context.Background(), "great food")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != LexiconCompound("great food") || inner.calls != 1 {
		t.Fatalf("unexpected score %v after %d calls", score, inner.calls)
	}
}
