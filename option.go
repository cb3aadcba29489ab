package querybot

import (
	"github.com/paperlab/querybot/config"
	"github.com/paperlab/querybot/scraper"
	"github.com/paperlab/querybot/service/archive"
	"github.com/paperlab/querybot/service/ollama"
	"github.com/paperlab/querybot/service/telegram"
	"github.com/paperlab/querybot/service/types"
	"github.com/paperlab/querybot/service/vector"
)

// Option customises a Service.
type Option func(*Service)

// WithConfig replaces the environment-derived configuration.
func WithConfig(aConfig *config.Config) Option {
	return func(s *Service) { s.config = aConfig }
}

// WithOllama injects a pre-built Ollama client.
func WithOllama(client *ollama.Client) Option {
	return func(s *Service) { s.ollama = client }
}

// WithVector injects a pre-built vector index client.
func WithVector(client *vector.Client) Option {
	return func(s *Service) { s.vector = client }
}

// WithTelegram injects a pre-built Telegram client.
func WithTelegram(client *telegram.Client) Option {
	return func(s *Service) { s.telegram = client }
}

// WithArchive injects a raw article archive.
func WithArchive(aService *archive.Service) Option {
	return func(s *Service) { s.archive = aService }
}

// WithFetcher injects a pre-built page fetcher.
func WithFetcher(fetcher *scraper.Fetcher) Option {
	return func(s *Service) { s.fetcher = fetcher }
}

// WithExtensionServices registers additional services in the action
// registry, making them reachable through the invoker.
func WithExtensionServices(services ...types.Service) Option {
	return func(s *Service) {
		s.extensionServices = append(s.extensionServices, services...)
	}
}

// WithTracing enables OpenTelemetry tracing, writing spans to the supplied
// file ("" for stdout).
func WithTracing(outputFile string) Option {
	return func(s *Service) {
		s.tracingOutput = &outputFile
	}
}
