// Package vector implements the Pinecone index client used to store and
// search article embeddings.
package vector

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

const (
	controlPlaneURL = "https://api.pinecone.io"
	apiVersion      = "2024-07"
)

// Client talks to a single Pinecone index. EnsureIndex resolves the data
// plane host; all vector operations require it.
type Client struct {
	apiKey     string
	index      string
	dimension  int
	cloud      string
	region     string
	host       string
	controlURL string
	httpClient *http.Client
	retry      backoff.Policy
}

// Option customises a Client.
type Option func(*Client)

// WithIndex sets the index name.
func WithIndex(name string) Option {
	return func(c *Client) { c.index = name }
}

// WithDimension sets the expected embedding dimension.
func WithDimension(dimension int) Option {
	return func(c *Client) { c.dimension = dimension }
}

// WithRegion sets the serverless cloud region for index creation.
func WithRegion(cloud, region string) Option {
	return func(c *Client) {
		c.cloud = cloud
		c.region = region
	}
}

// WithHost sets the data plane host directly, skipping index discovery.
func WithHost(host string) Option {
	return func(c *Client) { c.host = normalizeHost(host) }
}

// WithControlPlaneURL overrides the control plane endpoint (e.g. for tests).
func WithControlPlaneURL(baseURL string) Option {
	return func(c *Client) { c.controlURL = strings.TrimSuffix(baseURL, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithRetryPolicy overrides the retry schedule for outbound calls.
func WithRetryPolicy(policy backoff.Policy) Option {
	return func(c *Client) { c.retry = policy }
}

// New creates a new Client.
func New(apiKey string, options ...Option) *Client {
	ret := &Client{
		apiKey:     apiKey,
		index:      "research-abstracts",
		dimension:  384,
		cloud:      "aws",
		region:     "us-east-1",
		controlURL: controlPlaneURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retry:      backoff.DefaultPolicy(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func normalizeHost(host string) string {
	host = strings.TrimSuffix(host, "/")
	if host == "" || strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

type indexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// EnsureIndex creates the index when absent and resolves the data plane
// host. A dimension mismatch on an existing index is an error.
func (c *Client) EnsureIndex(ctx context.Context) error {
	described, err := c.describeIndex(ctx)
	if err != nil {
		return err
	}
	if described == nil {
		if described, err = c.createIndex(ctx); err != nil {
			return err
		}
	}
	if described.Dimension != c.dimension {
		return fmt.Errorf("index %v has dimension %v, expected %v", c.index, described.Dimension, c.dimension)
	}
	c.host = normalizeHost(described.Host)
	return nil
}

func (c *Client) describeIndex(ctx context.Context) (*indexDescription, error) {
	request, err := c.newRequest(ctx, http.MethodGet, c.controlURL+"/indexes/"+c.index, nil)
	if err != nil {
		return nil, err
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index %v: %w", c.index, err)
	}
	defer response.Body.Close()
	if response.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if response.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(response.Body)
		return nil, fmt.Errorf("failed to describe index %v: HTTP %v: %s", c.index, response.StatusCode, data)
	}
	described := &indexDescription{}
	if err = json.NewDecoder(response.Body).Decode(described); err != nil {
		return nil, err
	}
	return described, nil
}

func (c *Client) createIndex(ctx context.Context) (*indexDescription, error) {
	payload := map[string]interface{}{
		"name":      c.index,
		"dimension": c.dimension,
		"metric":    "cosine",
		"spec": map[string]interface{}{
			"serverless": map[string]interface{}{
				"cloud":  c.cloud,
				"region": c.region,
			},
		},
	}
	described := &indexDescription{}
	err := backoff.Retry(ctx, c.retry, func() error {
		return c.call(ctx, http.MethodPost, c.controlURL+"/indexes", payload, described)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create index %v: %w", c.index, err)
	}
	return described, nil
}

func (c *Client) dataURL(path string) (string, error) {
	if c.host == "" {
		return "", fmt.Errorf("index host not resolved; call EnsureIndex first")
	}
	return c.host + path, nil
}

func (c *Client) newRequest(ctx context.Context, method, URL string, body io.Reader) (*http.Request, error) {
	request, err := http.NewRequestWithContext(ctx, method, URL, body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Api-Key", c.apiKey)
	request.Header.Set("X-Pinecone-API-Version", apiVersion)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	return request, nil
}

func (c *Client) call(ctx context.Context, method, URL string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	request, err := c.newRequest(ctx, method, URL, body)
	if err != nil {
		return err
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(response.Body)
		return fmt.Errorf("%v %v: HTTP %v: %s", method, request.URL.Path, response.StatusCode, data)
	}
	if result == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(result)
}
