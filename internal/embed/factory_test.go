package embed

import (
	"math"
	"testing"

	"github.com/lhl/realitycheck/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantErr  bool
	}{
		{"openai", Config{Provider: "OpenAI", APIKey: "k"}, "openai", false},
		{"ollama", Config{Provider: "ollama", Model: "nomic-embed-text"}, "ollama", false},
		{"disabled", Config{}, "disabled", false},
		{"none", Config{Provider: "none"}, "disabled", false},
		{"unknown", Config{Provider: "cohere"}, "", true},
		{"openai without key", Config{Provider: "openai"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got provider %v", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("expected %s, got %s", tt.wantName, p.Name())
			}
		})
	}
}

func TestNew_Skip(t *testing.T) {
	c := model.DefaultConfig().Embedding
	c.Skip = true

	p, err := New(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*DisabledProvider); !ok {
		t.Errorf("expected DisabledProvider, got %T", p)
	}
}

func TestNew_Stack(t *testing.T) {
	c := model.DefaultConfig().Embedding
	c.APIKey = "k"
	c.CacheDir = t.TempDir()

	p, err := New(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.(*CachedProvider); !ok {
		t.Errorf("expected cache as outermost layer, got %T", p)
	}
	if p.Name() != "openai" || p.Model() != "text-embedding-3-small" {
		t.Errorf("wrappers must report the inner provider, got %s/%s", p.Name(), p.Model())
	}
}

func TestNew_Retries(t *testing.T) {
	c := model.DefaultConfig().Embedding
	c.APIKey = "k"

	p, _ := New(c, nil)
	timeout := p.(*CachedProvider).inner.(*TimeoutProvider)
	if _, ok := timeout.inner.(*LimitedProvider); !ok {
		t.Errorf("retries are off by default, got %T under the timeout", timeout.inner)
	}

	c.Retries = 2
	p, err := New(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	timeout = p.(*CachedProvider).inner.(*TimeoutProvider)
	retry, ok := timeout.inner.(*RetryProvider)
	if !ok {
		t.Fatalf("expected RetryProvider under the timeout, got %T", timeout.inner)
	}
	if retry.attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", retry.attempts)
	}
}

func TestNew_ProviderRates(t *testing.T) {
	limiterOf := func(p Provider) float64 {
		timeout := p.(*CachedProvider).inner.(*TimeoutProvider)
		limited := timeout.inner.(*LimitedProvider)
		return limited.limiter.Rate(limited.Name())
	}

	c := model.DefaultConfig().Embedding
	c.APIKey = "k"
	p, err := New(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := limiterOf(p); got != 5 {
		t.Errorf("expected the shared rate for openai, got %v", got)
	}

	c.ProviderRates = map[string]float64{"openai": 2}
	p, err = New(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := limiterOf(p); got != 2 {
		t.Errorf("expected the per-provider override, got %v", got)
	}

	c = model.DefaultConfig().Embedding
	c.Provider = "ollama"
	c.Model = "nomic-embed-text"
	p, err = New(c, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := limiterOf(p); !math.IsInf(got, 1) {
		t.Errorf("expected a local ollama to be unlimited by default, got %v", got)
	}
}
