package embed

import (
	"context"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/util"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = "text-embedding-3-small"

// OpenAIProvider embeds through the OpenAI embeddings endpoint or any
// compatible server (BaseURL)
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, errors.WithHint(
			errors.New("OpenAI API key is required"),
			"set REALITYCHECK_EMBED_API_KEY or OPENAI_API_KEY, or REALITYCHECK_EMBED_SKIP=1")
	}
	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: util.NewTransport(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the embedding model
func (p *OpenAIProvider) Model() string {
	return p.config.Model
}

// Embed calls the embeddings endpoint for a single input
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, unavailable(errors.New("openai: empty input"))
	}

	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.config.Model),
	}
	// Only the text-embedding-3 family accepts a requested size
	if p.config.Dim > 0 && strings.HasPrefix(p.config.Model, "text-embedding-3") {
		req.Dimensions = p.config.Dim
	}

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, unavailable(errors.Wrap(err, "OpenAI API error"))
	}
	if len(resp.Data) == 0 {
		return nil, unavailable(errors.New("no embedding in OpenAI response"))
	}

	vec := resp.Data[0].Embedding
	if err := checkDim(p.Name(), vec, p.config.Dim); err != nil {
		return nil, err
	}
	return vec, nil
}
