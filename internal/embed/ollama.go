package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lhl/realitycheck/internal/errors"
	"github.com/lhl/realitycheck/internal/util"
)

// DefaultOllamaURL is where a local Ollama listens
const DefaultOllamaURL = "http://localhost:11434"

// OllamaProvider embeds with a local Ollama model
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	if config.Model == "" {
		return nil, errors.WithHint(
			errors.New("ollama model must be specified"),
			"e.g. nomic-embed-text, mxbai-embed-large")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second // local models load slowly on first call
	}

	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: util.NewTransport(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Model returns the embedding model
func (p *OllamaProvider) Model() string {
	return p.config.Model
}

// Embed calls /api/embeddings
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, unavailable(errors.New("ollama: empty input"))
	}

	resp, err := p.makeRequest(ctx, ollamaRequest{Model: p.config.Model, Prompt: text})
	if err != nil {
		return nil, unavailable(errors.Wrap(err, "ollama API error"))
	}

	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	if err := checkDim(p.Name(), vec, p.config.Dim); err != nil {
		return nil, err
	}
	return vec, nil
}

// makeRequest makes an HTTP request to the Ollama API
func (p *OllamaProvider) makeRequest(ctx context.Context, apiReq ollamaRequest) (*ollamaResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	url := fmt.Sprintf("%s/api/embeddings", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "execute request to %s", p.baseURL)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, errors.Newf("API error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, errors.Newf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, errors.Wrap(err, "unmarshal response")
	}
	return &resp, nil
}
