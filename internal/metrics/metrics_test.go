package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second register: %v", err)
	}
}

func TestObserveModelCallCountsRetries(t *testing.T) {
	retries := testutil.ToFloat64(modelCallsTotal.WithLabelValues("test-score", OutcomeRetry))
	exhausted := testutil.ToFloat64(modelCallsTotal.WithLabelValues("test-score", OutcomeExhausted))

	ObserveModelCall("test-score", 20*time.Millisecond, 3, errors.New("timeout"))

	if got := testutil.ToFloat64(modelCallsTotal.WithLabelValues("test-score", OutcomeRetry)); got != retries+2 {
		t.Fatalf("expected two retries recorded, got %v", got-retries)
	}
	if got := testutil.ToFloat64(modelCallsTotal.WithLabelValues("test-score", OutcomeExhausted)); got != exhausted+1 {
		t.Fatalf("expected exhausted call recorded")
	}
}
