// Package bot runs the Telegram query loop: greetings get a friendly model
// reply, everything else is embedded and answered with the closest stored
// article.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/paperlab/querybot/internal/backoff"
	"github.com/paperlab/querybot/service/ollama"
	"github.com/paperlab/querybot/service/telegram"
	"github.com/paperlab/querybot/service/vector"
	"github.com/paperlab/querybot/tracing"
)

// Embedder creates embeddings for user queries.
type Embedder interface {
	Embed(ctx context.Context, input *ollama.EmbedInput, output *ollama.EmbedOutput) error
}

// Generator produces free-form text for greeting replies.
type Generator interface {
	Generate(ctx context.Context, input *ollama.GenerateInput, output *ollama.GenerateOutput) error
}

// Searcher finds stored articles by embedding.
type Searcher interface {
	Query(ctx context.Context, input *vector.QueryInput, output *vector.QueryOutput) error
}

// Messenger delivers and receives Telegram messages.
type Messenger interface {
	Updates(ctx context.Context) ([]*telegram.Update, error)
	Send(ctx context.Context, chatID int64, text string) error
}

const (
	startReply = "Hi! Send me a topic and I will find the closest research article for you."
	noMatch    = "I could not find a matching article. Try rephrasing your question."

	// used when the model is unreachable
	fallbackGreeting = "Hello! Ask me about a research topic and I will find a matching article."
)

// Service is the query bot.
type Service struct {
	messenger   Messenger
	embedder    Embedder
	generator   Generator
	searcher    Searcher
	pollBackoff backoff.Policy
}

// Option customises a Service.
type Option func(*Service)

// WithPollBackoff overrides the pause schedule applied between failed
// update polls.
func WithPollBackoff(policy backoff.Policy) Option {
	return func(s *Service) { s.pollBackoff = policy }
}

// New creates a new bot.
func New(messenger Messenger, embedder Embedder, generator Generator, searcher Searcher, options ...Option) *Service {
	ret := &Service{
		messenger:   messenger,
		embedder:    embedder,
		generator:   generator,
		searcher:    searcher,
		pollBackoff: backoff.DefaultPolicy(),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Run polls for updates until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	log.Printf("query bot started")
	failures := 0
	for {
		updates, err := s.messenger.Updates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("query bot stopped")
				return nil
			}
			failures++
			log.Printf("failed to poll updates: %v", err)
			s.pause(ctx, failures)
			continue
		}
		failures = 0
		for _, update := range updates {
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			if err := s.Handle(ctx, update.Message); err != nil {
				log.Printf("failed to handle message from chat %v: %v", update.Message.Chat.ID, err)
			}
		}
	}
}

// pause sleeps between failed polls; once the schedule is exhausted it keeps
// waiting at the cap so a dead Telegram endpoint never turns into a hot loop.
func (s *Service) pause(ctx context.Context, failures int) {
	retry, delay := s.pollBackoff.Next(failures)
	if !retry {
		delay = s.pollBackoff.MaxDelay
	}
	if delay <= 0 {
		delay = s.pollBackoff.Delay
	}
	if delay <= 0 {
		delay = time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// Handle answers a single inbound message.
func (s *Service) Handle(ctx context.Context, message *telegram.Message) (err error) {
	ctx, span := tracing.StartSpan(ctx, "bot.Handle", "INTERNAL")
	defer tracing.EndSpan(span, err)

	text := strings.TrimSpace(message.Text)
	switch {
	case strings.HasPrefix(text, "/start"):
		return s.messenger.Send(ctx, message.Chat.ID, startReply)
	case IsGreeting(text):
		return s.messenger.Send(ctx, message.Chat.ID, s.greetingReply(ctx, message))
	default:
		return s.answerQuery(ctx, message.Chat.ID, text)
	}
}

func (s *Service) greetingReply(ctx context.Context, message *telegram.Message) string {
	name := ""
	if message.From != nil {
		name = message.From.FirstName
	}
	prompt := "Reply with one short friendly sentence greeting a user of a research article search bot. " +
		"Invite them to ask about a topic. Do not use emoji."
	if name != "" {
		prompt += " The user's first name is " + name + "."
	}
	output := &ollama.GenerateOutput{}
	if err := s.generator.Generate(ctx, &ollama.GenerateInput{Prompt: prompt}, output); err != nil || output.Text == "" {
		if err != nil {
			log.Printf("greeting generation failed, using canned reply: %v", err)
		}
		return fallbackGreeting
	}
	return EscapeHTML(output.Text)
}

func (s *Service) answerQuery(ctx context.Context, chatID int64, query string) error {
	embedded := &ollama.EmbedOutput{}
	if err := s.embedder.Embed(ctx, &ollama.EmbedInput{Text: query}, embedded); err != nil {
		return fmt.Errorf("failed to embed query: %w", err)
	}
	found := &vector.QueryOutput{}
	if err := s.searcher.Query(ctx, &vector.QueryInput{Vector: embedded.Vector, TopK: 1}, found); err != nil {
		return fmt.Errorf("failed to search index: %w", err)
	}
	if len(found.Matches) == 0 {
		return s.messenger.Send(ctx, chatID, noMatch)
	}
	return s.messenger.Send(ctx, chatID, FormatMatch(found.Matches[0]))
}
