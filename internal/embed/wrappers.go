package embed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/cache"
	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/logger"
	"github.com/lhl/realitycheck/internal/worker"
)

// DisabledProvider never embeds. It stands in when embedding is skipped
// or no provider is configured.
type DisabledProvider struct {
	Reason string
}

func (p *DisabledProvider) Name() string  { return "disabled" }
func (p *DisabledProvider) Model() string { return "" }

func (p *DisabledProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.WithHint(
		errors.Wrap(errors.ErrEmbeddingUnavailable, p.Reason),
		"configure embedding.provider and unset REALITYCHECK_EMBED_SKIP, then run: realitycheck embed")
}

// CachedProvider serves repeated texts from a cache keyed by provider,
// model and text
type CachedProvider struct {
	inner  Provider
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider wraps inner with c
func NewCachedProvider(inner Provider, c cache.Cache, ttl time.Duration, log *zap.Logger) *CachedProvider {
	return &CachedProvider{inner: inner, cache: c, ttl: ttl, logger: logger.OrNop(log)}
}

func (p *CachedProvider) Name() string  { return p.inner.Name() }
func (p *CachedProvider) Model() string { return p.inner.Model() }

func (p *CachedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.Key(p.inner.Name(), p.inner.Model(), text)
	if data, ok := p.cache.Get(key); ok {
		if vec, ok := cache.DecodeVector(data); ok {
			return vec, nil
		}
		if err := p.cache.Delete(key); err != nil {
			p.logger.Warn("Failed to drop corrupt cache entry", zap.Error(err))
		}
	}

	vec, err := p.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(key, cache.EncodeVector(vec), p.ttl); err != nil {
		p.logger.Warn("Failed to cache embedding", zap.Error(err))
	}
	return vec, nil
}

// LimitedProvider waits for a rate-limit token before each call
type LimitedProvider struct {
	inner   Provider
	limiter *worker.Limiter
}

// NewLimitedProvider wraps inner with l, keyed by the provider name
func NewLimitedProvider(inner Provider, l *worker.Limiter) *LimitedProvider {
	return &LimitedProvider{inner: inner, limiter: l}
}

func (p *LimitedProvider) Name() string  { return p.inner.Name() }
func (p *LimitedProvider) Model() string { return p.inner.Model() }

func (p *LimitedProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.limiter.Wait(ctx, p.inner.Name()); err != nil {
		return nil, unavailable(errors.Wrapf(err, "rate limit wait for %s", p.inner.Name()))
	}
	return p.inner.Embed(ctx, text)
}

// TimeoutProvider bounds each call
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// NewTimeoutProvider wraps inner; a non-positive timeout disables the bound
func NewTimeoutProvider(inner Provider, timeout time.Duration) *TimeoutProvider {
	return &TimeoutProvider{inner: inner, timeout: timeout}
}

func (p *TimeoutProvider) Name() string  { return p.inner.Name() }
func (p *TimeoutProvider) Model() string { return p.inner.Model() }

func (p *TimeoutProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.timeout <= 0 {
		return p.inner.Embed(ctx, text)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	vec, err := p.inner.Embed(ctx, text)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, unavailable(errors.Wrapf(err, "%s timed out after %s", p.inner.Name(), p.timeout))
	}
	return vec, err
}
