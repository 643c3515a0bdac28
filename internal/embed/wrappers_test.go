package embed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lhl/realitycheck/internal/cache"
	rcerrors "github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/worker"
)

// countingProvider returns a fixed vector and counts calls
type countingProvider struct {
	calls int32
	delay time.Duration
	err   error
}

func (p *countingProvider) Name() string  { return "counting" }
func (p *countingProvider) Model() string { return "m1" }

func (p *countingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestCachedProvider(t *testing.T) {
	inner := &countingProvider{}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	p := NewCachedProvider(inner, c, time.Minute, nil)
	ctx := context.Background()

	first, err := p.Embed(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Embed(ctx, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&inner.calls) != 1 {
		t.Errorf("expected 1 upstream call, got %d", inner.calls)
	}
	if len(second) != 2 || second[0] != first[0] {
		t.Errorf("cached vector differs: %v vs %v", first, second)
	}

	if _, err := p.Embed(ctx, "abcd"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&inner.calls) != 2 {
		t.Errorf("expected a miss for new text, got %d calls", inner.calls)
	}
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	inner := &countingProvider{err: errors.New("down")}
	p := NewCachedProvider(inner, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute, nil)

	for i := 0; i < 2; i++ {
		if _, err := p.Embed(context.Background(), "x"); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.calls != 2 {
		t.Errorf("expected failures to reach upstream each time, got %d", inner.calls)
	}
}

func TestCachedProvider_CorruptEntry(t *testing.T) {
	inner := &countingProvider{}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set(cache.Key("counting", "m1", "abc"), []byte{1, 2, 3}, time.Minute)

	p := NewCachedProvider(inner, c, time.Minute, nil)
	vec, err := p.Embed(context.Background(), "abc")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 2 || inner.calls != 1 {
		t.Errorf("expected corrupt entry to be replaced, got %v after %d calls", vec, inner.calls)
	}
}

// stuckCache cannot delete entries
type stuckCache struct {
	cache.Cache
}

func (stuckCache) Delete(string) error { return errors.New("read-only cache") }

func TestCachedProvider_DeleteFailureLogged(t *testing.T) {
	inner := &countingProvider{}
	c := stuckCache{cache.NewMemoryCache(time.Minute, time.Minute)}
	_ = c.Set(cache.Key("counting", "m1", "abc"), []byte{1, 2, 3}, time.Minute)

	core, logs := observer.New(zap.WarnLevel)
	p := NewCachedProvider(inner, c, time.Minute, zap.New(core))
	if _, err := p.Embed(context.Background(), "abc"); err != nil {
		t.Fatal(err)
	}
	entries := logs.FilterMessage("Failed to drop corrupt cache entry").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["error"]; got != "read-only cache" {
		t.Errorf("expected the delete error in the log, got %v", got)
	}
}

func TestTimeoutProvider(t *testing.T) {
	p := NewTimeoutProvider(&countingProvider{delay: time.Second}, 10*time.Millisecond)

	_, err := p.Embed(context.Background(), "x")
	if !rcerrors.IsEmbeddingUnavailable(err) {
		t.Errorf("expected timeout to be marked unavailable, got %v", err)
	}

	fast := NewTimeoutProvider(&countingProvider{}, time.Second)
	if _, err := fast.Embed(context.Background(), "x"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLimitedProvider(t *testing.T) {
	limiter := worker.NewLimiter(0.01, 1)
	p := NewLimitedProvider(&countingProvider{}, limiter)

	if _, err := p.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Embed(ctx, "y")
	if !rcerrors.IsEmbeddingUnavailable(err) {
		t.Errorf("expected rate-limited call to fail as unavailable, got %v", err)
	}
}

func TestDisabledProvider(t *testing.T) {
	p := &DisabledProvider{Reason: "skipped"}
	_, err := p.Embed(context.Background(), "x")
	if !rcerrors.IsEmbeddingUnavailable(err) {
		t.Errorf("expected unavailable, got %v", err)
	}
	if len(rcerrors.GetAllHints(err)) == 0 {
		t.Error("expected a hint")
	}
}
