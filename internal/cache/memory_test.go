package cache

import (
	"testing"
	"time"

	"github.com/ppiankov/eqverify/internal/model"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	key := CacheKey("exp(i*theta)", "cos(theta) + i*sin(theta)")

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(key, model.VerificationResult{ID: "euler", Outcome: model.OutcomeProved})
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Outcome != model.OutcomeProved || !got.Cached {
		t.Errorf("got %+v, want proved and cached", got)
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d/%d, want 1/1", hits, misses)
	}
}

func TestMemoryCacheSkipsRunDependentVerdicts(t *testing.T) {
	c := NewMemoryCache(0, time.Minute)

	c.Set("a", model.VerificationResult{Outcome: model.OutcomeInconclusive, TimedOut: true})
	c.Set("b", model.VerificationResult{Outcome: model.OutcomeInconclusive, Canceled: true})
	c.Set("c", model.VerificationResult{Outcome: model.OutcomeInconclusive})

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Error("timed-out verdict was cached")
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("x", "y")
	if a != CacheKey("x", "y") {
		t.Error("key is not stable")
	}
	if a == CacheKey("xy") || a == CacheKey("x", "y", "") {
		t.Error("parts are not separated")
	}
	if len(a) != len("eqverify:v1:")+64 {
		t.Errorf("unexpected key length %d", len(a))
	}
}
