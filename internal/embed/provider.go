// Package embed turns record text into vectors. Providers talk to an
// OpenAI-compatible API or a local Ollama server; wrappers add caching,
// rate limiting and a bounded timeout. Every failure surfaces as an error
// marked with errors.ErrEmbeddingUnavailable so callers can degrade.
package embed

import (
	"context"
	"time"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/model"
)

// Provider defines the interface for embedding providers
type Provider interface {
	// Name returns the provider name, used as cache and rate-limit key
	Name() string

	// Model returns the embedding model the provider calls
	Model() string

	// Embed maps text to a vector
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config holds embedding provider configuration
type Config struct {
	// Provider name: "openai", "ollama", "" (disabled)
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Dim is the expected vector length; 0 accepts any
	Dim int

	// Timeout bounds one Embed call, rate-limit wait included
	Timeout time.Duration

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// ConfigFromModel converts the embedding section of model.Config
func ConfigFromModel(c model.EmbeddingConfig) Config {
	return Config{
		Provider:   c.Provider,
		Model:      c.Model,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Dim:        c.Dim,
		Timeout:    c.Timeout,
		HTTPProxy:  c.HTTPProxy,
		HTTPSProxy: c.HTTPSProxy,
		NoProxy:    c.NoProxy,
	}
}

// unavailable marks err so errors.IsEmbeddingUnavailable matches it
func unavailable(err error) error {
	return errors.Mark(err, errors.ErrEmbeddingUnavailable)
}

func checkDim(provider string, vec []float32, dim int) error {
	if len(vec) == 0 {
		return unavailable(errors.Newf("%s returned an empty vector", provider))
	}
	if dim > 0 && len(vec) != dim {
		return unavailable(errors.WithHintf(
			errors.Wrapf(errors.ErrDimensionMismatch, "%s returned %d values, want %d", provider, len(vec), dim),
			"set embedding.dim to the model's output size"))
	}
	return nil
}
