package embed

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lhl/realitycheck/internal/cache"
	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/logger"
	"github.com/lhl/realitycheck/internal/model"
	"github.com/lhl/realitycheck/internal/worker"
)

// NewProvider creates the bare provider named by config
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "", "none":
		return &DisabledProvider{Reason: "no embedding provider configured"}, nil

	default:
		return nil, errors.WithHint(
			errors.Newf("unknown embedding provider: %s", config.Provider),
			"supported: openai, ollama")
	}
}

// New builds the provider stack used by the registry: cache, then
// timeout, then retries (only when configured), then rate limit, then the
// remote call. Skip yields a DisabledProvider.
func New(c model.EmbeddingConfig, log *zap.Logger) (Provider, error) {
	log = logger.OrNop(log)
	if c.Skip {
		return &DisabledProvider{Reason: "embedding skipped by configuration"}, nil
	}

	base, err := NewProvider(ConfigFromModel(c))
	if err != nil {
		return nil, err
	}
	if _, disabled := base.(*DisabledProvider); disabled {
		return base, nil
	}

	limiter := worker.NewLimiter(c.RequestsPerSec, c.Burst)
	if rps, ok := c.ProviderRates[base.Name()]; ok {
		limiter.SetRate(base.Name(), rps, c.Burst)
	}

	var p Provider = base
	p = NewLimitedProvider(p, limiter)
	if c.Retries > 0 {
		p = NewRetryProvider(p, c.Retries+1, time.Second, log)
	}
	p = NewTimeoutProvider(p, c.Timeout)
	p = NewCachedProvider(p, cache.NewLayeredCache(c.CacheTTL, c.CacheDir, c.CacheTTL), c.CacheTTL, log)

	log.Debug("Embedding provider ready",
		zap.String("provider", base.Name()),
		zap.String("model", base.Model()),
		zap.Int("dim", c.Dim),
		zap.Float64("requests_per_sec", limiter.Rate(base.Name())),
		zap.String("cache_dir", c.CacheDir))
	return p, nil
}
