// Package querybot wires the research article system together: the indexing
// pipeline that scrapes, condenses and embeds articles, and the Telegram bot
// that answers queries from the resulting vector index.
package querybot

import (
	"context"
	"fmt"

	"github.com/paperlab/querybot/bot"
	"github.com/paperlab/querybot/config"
	"github.com/paperlab/querybot/extension"
	"github.com/paperlab/querybot/scraper"
	"github.com/paperlab/querybot/service/archive"
	"github.com/paperlab/querybot/service/invoker"
	"github.com/paperlab/querybot/service/ollama"
	"github.com/paperlab/querybot/service/secret"
	"github.com/paperlab/querybot/service/telegram"
	"github.com/paperlab/querybot/service/types"
	"github.com/paperlab/querybot/service/vector"
	"github.com/paperlab/querybot/tracing"
)

// Version is stamped into traces.
const Version = "0.1.0"

// Service is the composition root: it owns the configuration, the shared
// clients and the action registry.
type Service struct {
	config   *config.Config
	secrets  *secret.Service
	ollama   *ollama.Client
	vector   *vector.Client
	telegram *telegram.Client
	archive  *archive.Service
	fetcher  *scraper.Fetcher

	actions           *extension.Actions
	extensionServices []types.Service
	tracingOutput     *string
}

// New creates a Service from environment configuration, applying options on
// top.
func New(ctx context.Context, options ...Option) (*Service, error) {
	ret := &Service{
		secrets: secret.New(),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.config == nil {
		ret.config = config.New()
	}
	if err := ret.config.Validate(); err != nil {
		return nil, err
	}
	if ret.tracingOutput != nil {
		if err := tracing.Init("querybot", Version, *ret.tracingOutput); err != nil {
			return nil, fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	if err := ret.init(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(ctx context.Context) error {
	aConfig := s.config
	if s.ollama == nil {
		s.ollama = ollama.New(
			ollama.WithBaseURL(aConfig.OllamaBaseURL()),
			ollama.WithModel(aConfig.OllamaModel),
			ollama.WithEmbedModel(aConfig.EmbedModel),
			ollama.WithTimeout(aConfig.OllamaTimeout),
			ollama.WithGenerationOptions(&ollama.GenerationOptions{
				Temperature: aConfig.Temperature,
				NumPredict:  aConfig.MaxSummaryTokens,
				TopP:        aConfig.TopP,
				TopK:        aConfig.TopK,
			}))
	}
	if s.vector == nil {
		apiKey := aConfig.IndexAPIKey
		if aConfig.IndexAPIKeyURL != "" {
			var err error
			if apiKey, err = s.secrets.Token(ctx, aConfig.IndexAPIKeyURL); err != nil {
				return fmt.Errorf("failed to resolve index API key: %w", err)
			}
		}
		s.vector = vector.New(apiKey,
			vector.WithIndex(aConfig.IndexName),
			vector.WithDimension(aConfig.Dimension),
			vector.WithRegion("aws", aConfig.IndexRegion))
	}
	if s.fetcher == nil {
		s.fetcher = scraper.NewFetcher(
			scraper.WithUserAgent(aConfig.UserAgent))
	}
	if s.archive == nil && aConfig.ArchiveEndpoint != "" {
		var err error
		s.archive, err = archive.New(&archive.Config{
			Endpoint:  aConfig.ArchiveEndpoint,
			AccessKey: aConfig.ArchiveAccessKey,
			SecretKey: aConfig.ArchiveSecretKey,
			Bucket:    aConfig.ArchiveBucket,
			UseSSL:    aConfig.ArchiveSecure,
		})
		if err != nil {
			return err
		}
		// first Store on a fresh deployment needs the bucket in place
		if err = s.archive.EnsureBucket(ctx); err != nil {
			return err
		}
	}
	s.actions = extension.NewActions()
	s.actions.Register(s.ollama)
	s.actions.Register(s.vector)
	for _, service := range s.extensionServices {
		s.actions.Register(service)
	}
	return nil
}

// Config returns the effective configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// Ollama returns the language model client.
func (s *Service) Ollama() *ollama.Client {
	return s.ollama
}

// Vector returns the vector index client.
func (s *Service) Vector() *vector.Client {
	return s.vector
}

// Actions returns the action registry.
func (s *Service) Actions() *extension.Actions {
	return s.actions
}

// Invoker returns a dispatcher over the action registry.
func (s *Service) Invoker(options ...invoker.Option) *invoker.Service {
	return invoker.New(s.actions, options...)
}

// Bot builds the Telegram query bot, resolving the bot token when needed.
func (s *Service) Bot(ctx context.Context) (*bot.Service, error) {
	if err := s.config.ValidateBot(); err != nil {
		return nil, err
	}
	if s.telegram == nil {
		token := s.config.TelegramToken
		if s.config.TelegramTokenURL != "" {
			var err error
			if token, err = s.secrets.Token(ctx, s.config.TelegramTokenURL); err != nil {
				return nil, fmt.Errorf("failed to resolve telegram token: %w", err)
			}
		}
		s.telegram = telegram.New(token)
	}
	return bot.New(s.telegram, s.ollama, s.ollama, s.vector), nil
}

// Pipeline builds the indexing pipeline.
func (s *Service) Pipeline() *scraper.Pipeline {
	aConfig := s.config
	options := []scraper.PipelineOption{
		scraper.WithConcurrency(aConfig.Concurrency),
		scraper.WithDimension(aConfig.Dimension),
		scraper.WithDelays(aConfig.WaitBetweenPages, aConfig.WaitBetweenArticles),
		scraper.WithStateURLs(aConfig.CheckpointURL(), aConfig.StatsURL()),
	}
	if s.archive != nil {
		options = append(options, scraper.WithArchiver(s.archive))
	}
	return scraper.NewPipeline(s.fetcher, s.ollama, s.ollama, s.vector, aConfig.SearchURL, options...)
}
