// Package scraper implements the indexing pipeline: crawl article listings,
// extract and parse articles, condense them with the language model and
// store the embeddings in the vector index.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paperlab/querybot/internal/backoff"
)

// Fetcher downloads pages with a fixed User-Agent and retry schedule.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	retry      backoff.Policy
}

// FetcherOption customises a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) FetcherOption {
	return func(f *Fetcher) { f.userAgent = userAgent }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) { f.httpClient = client }
}

// WithRetryPolicy overrides the retry schedule.
func WithRetryPolicy(policy backoff.Policy) FetcherOption {
	return func(f *Fetcher) { f.retry = policy }
}

// NewFetcher creates a new Fetcher.
func NewFetcher(options ...FetcherOption) *Fetcher {
	ret := &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "Mozilla/5.0 (compatible; paperlab-bot/1.0)",
		retry:      backoff.DefaultPolicy(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Fetch downloads a page body.
func (f *Fetcher) Fetch(ctx context.Context, URL string) ([]byte, error) {
	var body []byte
	err := backoff.Retry(ctx, f.retry, func() error {
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, URL, nil)
		if err != nil {
			return err
		}
		request.Header.Set("User-Agent", f.userAgent)
		response, err := f.httpClient.Do(request)
		if err != nil {
			return fmt.Errorf("failed to fetch %v: %w", URL, err)
		}
		defer response.Body.Close()
		if response.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to fetch %v: HTTP %v", URL, response.StatusCode)
		}
		body, err = io.ReadAll(response.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
