// Package ollama implements the client for a local Ollama server: model
// management, text generation for article summaries and embeddings for both
// indexing and query time.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/paperlab/querybot/internal/backoff"
)

// Client talks to a single Ollama server.
type Client struct {
	baseURL    string
	model      string
	embedModel string
	httpClient *http.Client
	options    *GenerationOptions
	retry      backoff.Policy
}

// GenerationOptions are passed verbatim to /api/generate.
type GenerationOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL sets the server base URL, e.g. http://localhost:11434.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

// WithModel sets the generation model.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithEmbedModel sets the embedding model.
func WithEmbedModel(model string) Option {
	return func(c *Client) { c.embedModel = model }
}

// WithHTTPClient overrides the HTTP client (e.g. for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// WithGenerationOptions sets the generation parameters.
func WithGenerationOptions(options *GenerationOptions) Option {
	return func(c *Client) { c.options = options }
}

// WithRetryPolicy overrides the retry schedule for outbound calls.
func WithRetryPolicy(policy backoff.Policy) Option {
	return func(c *Client) { c.retry = policy }
}

// New creates a new Client.
func New(options ...Option) *Client {
	ret := &Client{
		baseURL:    "http://localhost:11434",
		model:      "gemma3:1b",
		embedModel: "all-minilm",
		httpClient: &http.Client{Timeout: 180 * time.Second},
		options:    &GenerationOptions{Temperature: 0.3, NumPredict: 1000, TopP: 0.9, TopK: 40},
		retry:      backoff.DefaultPolicy(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// CheckConnection verifies the server is reachable.
func (c *Client) CheckConnection(ctx context.Context) error {
	return backoff.Retry(ctx, c.retry, func() error {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
		if err != nil {
			return err
		}
		response, err := c.httpClient.Do(request)
		if err != nil {
			return fmt.Errorf("ollama connection check failed: %w", err)
		}
		defer response.Body.Close()
		if response.StatusCode != http.StatusOK {
			return fmt.Errorf("ollama connection check failed: HTTP %v", response.StatusCode)
		}
		return nil
	})
}

// Models returns the names of the models available on the server.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.get(ctx, "/api/tags", &payload); err != nil {
		return nil, err
	}
	ret := make([]string, 0, len(payload.Models))
	for _, model := range payload.Models {
		ret = append(ret, model.Name)
	}
	return ret, nil
}

// EnsureModels pulls the generation and embedding models unless already
// present.
func (c *Client) EnsureModels(ctx context.Context) error {
	available, err := c.Models(ctx)
	if err != nil {
		return fmt.Errorf("failed to list ollama models: %w", err)
	}
	for _, model := range []string{c.model, c.embedModel} {
		if hasModel(available, model) {
			continue
		}
		if err = c.pull(ctx, model); err != nil {
			return fmt.Errorf("failed to pull model %v: %w", model, err)
		}
	}
	return nil
}

func hasModel(available []string, model string) bool {
	for _, candidate := range available {
		if strings.Contains(candidate, model) {
			return true
		}
	}
	return false
}

func (c *Client) pull(ctx context.Context, model string) error {
	return c.post(ctx, "/api/pull", map[string]interface{}{"name": model, "stream": false}, nil)
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(request, result)
}

func (c *Client) post(ctx context.Context, path string, payload, result interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	return c.do(request, result)
}

func (c *Client) do(request *http.Request, result interface{}) error {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(response.Body)
		return fmt.Errorf("%v %v: HTTP %v: %s", request.Method, request.URL.Path, response.StatusCode, data)
	}
	if result == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(result)
}
