package model

import "time"

// Config holds all runtime settings. Values are layered by viper:
// flags > REALITYCHECK_* env > ~/.realitycheck/config.yaml > DefaultConfig.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// DataConfig locates the database instance
type DataConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Directory holding registry.db
}

// EmbeddingConfig configures the embedding provider and its guards
type EmbeddingConfig struct {
	Skip           bool               `yaml:"skip" mapstructure:"skip"`         // Store records with a null embedding
	Provider       string             `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model          string             `yaml:"model" mapstructure:"model"`
	BaseURL        string             `yaml:"base_url" mapstructure:"base_url"`
	APIKey         string             `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Dim            int                `yaml:"dim" mapstructure:"dim"` // 0 accepts any length
	Timeout        time.Duration      `yaml:"timeout" mapstructure:"timeout"`
	CacheDir       string             `yaml:"cache_dir" mapstructure:"cache_dir"` // Empty disables the disk layer
	CacheTTL       time.Duration      `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	RequestsPerSec float64            `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst          int                `yaml:"burst" mapstructure:"burst"`
	ProviderRates  map[string]float64 `yaml:"provider_rates,omitempty" mapstructure:"provider_rates"` // Overrides requests_per_sec by provider name; 0 is unlimited
	Workers        int                `yaml:"workers" mapstructure:"workers"`                         // Batch re-embedding concurrency
	Retries        int                `yaml:"retries" mapstructure:"retries"`                         // Extra attempts on transient provider errors; 0 disables
	HTTPProxy      string             `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy     string             `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy        string             `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"` // Comma-separated hosts
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Format  string `yaml:"format" mapstructure:"format"` // json, text, yaml
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	JSONLog bool   `yaml:"json_log" mapstructure:"json_log"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Data: DataConfig{
			Path: "data/realitycheck",
		},
		Embedding: EmbeddingConfig{
			Provider:       "openai",
			Model:          "text-embedding-3-small",
			Dim:            1536,
			Timeout:        30 * time.Second,
			CacheTTL:       7 * 24 * time.Hour,
			RequestsPerSec: 5,
			Burst:          5,
			ProviderRates:  map[string]float64{"ollama": 0},
			Workers:        4,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}
