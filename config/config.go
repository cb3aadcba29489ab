// Package config centralises the environment driven configuration shared by
// the query bot and the indexing pipeline. The zero value is not useful –
// call New to get a Config populated with defaults and environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every tunable of the system. All fields can be overridden
// through environment variables; the defaults match the historical setup.
type Config struct {
	// Ollama server
	OllamaHost  string `json:"ollamaHost" yaml:"ollamaHost"`
	OllamaPort  string `json:"ollamaPort" yaml:"ollamaPort"`
	OllamaModel string `json:"ollamaModel" yaml:"ollamaModel"`
	// EmbedModel is the model used for embeddings; it must produce vectors of
	// Dimension elements.
	EmbedModel    string        `json:"embedModel" yaml:"embedModel"`
	OllamaTimeout time.Duration `json:"ollamaTimeout" yaml:"ollamaTimeout"`

	// Generation parameters
	Temperature      float64 `json:"temperature" yaml:"temperature"`
	MaxSummaryTokens int     `json:"maxSummaryTokens" yaml:"maxSummaryTokens"`
	TopP             float64 `json:"topP" yaml:"topP"`
	TopK             int     `json:"topK" yaml:"topK"`

	// Vector index
	IndexAPIKey string `json:"-" yaml:"-"`
	// IndexAPIKeyURL optionally points at a scy encrypted resource holding the
	// API key; it takes precedence over IndexAPIKey when set.
	IndexAPIKeyURL string `json:"indexAPIKeyURL,omitempty" yaml:"indexAPIKeyURL,omitempty"`
	IndexName      string `json:"indexName" yaml:"indexName"`
	IndexRegion    string `json:"indexRegion" yaml:"indexRegion"`
	Dimension      int    `json:"dimension" yaml:"dimension"`

	// Telegram
	TelegramToken    string `json:"-" yaml:"-"`
	TelegramTokenURL string `json:"telegramTokenURL,omitempty" yaml:"telegramTokenURL,omitempty"`

	// Scraping
	SearchURL    string        `json:"searchURL" yaml:"searchURL"`
	UserAgent    string        `json:"userAgent" yaml:"userAgent"`
	ScrapTimeout time.Duration `json:"scrapTimeout" yaml:"scrapTimeout"`

	// Concurrency and politeness
	Concurrency         int           `json:"concurrency" yaml:"concurrency"`
	WaitBetweenPages    time.Duration `json:"waitBetweenPages" yaml:"waitBetweenPages"`
	WaitBetweenArticles time.Duration `json:"waitBetweenArticles" yaml:"waitBetweenArticles"`

	// State locations (any viant/afs supported scheme)
	StateDir string `json:"stateDir" yaml:"stateDir"`

	// Optional raw article archive (S3 compatible)
	ArchiveEndpoint  string `json:"archiveEndpoint,omitempty" yaml:"archiveEndpoint,omitempty"`
	ArchiveBucket    string `json:"archiveBucket,omitempty" yaml:"archiveBucket,omitempty"`
	ArchiveAccessKey string `json:"-" yaml:"-"`
	ArchiveSecretKey string `json:"-" yaml:"-"`
	ArchiveSecure    bool   `json:"archiveSecure,omitempty" yaml:"archiveSecure,omitempty"`
}

// OllamaBaseURL returns the base URL of the Ollama server.
func (c *Config) OllamaBaseURL() string {
	return fmt.Sprintf("http://%s:%s", c.OllamaHost, c.OllamaPort)
}

// CheckpointURL returns the location of the pipeline checkpoint file.
func (c *Config) CheckpointURL() string {
	return c.StateDir + "/checkpoint.json"
}

// StatsURL returns the location of the pipeline stats file.
func (c *Config) StatsURL() string {
	return c.StateDir + "/processing_stats.json"
}

// New returns a Config populated with defaults and environment overrides.
func New() *Config {
	return &Config{
		OllamaHost:    envString("OLLAMA_HOST", "localhost"),
		OllamaPort:    envString("OLLAMA_PORT", "11434"),
		OllamaModel:   envString("OLLAMA_MODEL", "gemma3:1b"),
		EmbedModel:    envString("EMBED_MODEL", "all-minilm"),
		OllamaTimeout: envDuration("OLLAMA_TIMEOUT", 180*time.Second),

		Temperature:      envFloat("TEMPERATURE", 0.3),
		MaxSummaryTokens: envInt("MAX_TOKENS_FOR_SUMMARY", 1000),
		TopP:             envFloat("TOP_P", 0.9),
		TopK:             envInt("TOP_K", 40),

		IndexAPIKey:    os.Getenv("PINECONE_API_KEY"),
		IndexAPIKeyURL: os.Getenv("PINECONE_API_KEY_URL"),
		IndexName:      envString("PINECONE_INDEX_NAME", "research-abstracts"),
		IndexRegion:    envString("PINECONE_ENVIRONMENT", "us-east-1"),
		Dimension:      envInt("EMBEDDING_DIMENSION", 384),

		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		TelegramTokenURL: os.Getenv("TELEGRAM_TOKEN_URL"),

		SearchURL:    envString("BASE_SEARCH_URL", "https://link.springer.com/search?new-search=true&query=research&sortBy=relevance"),
		UserAgent:    envString("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		ScrapTimeout: envDuration("SCRAPING_TIMEOUT", 90*time.Second),

		Concurrency:         envInt("CONCURRENCY_LIMIT", 3),
		WaitBetweenPages:    envDuration("WAIT_BETWEEN_PAGES", 5*time.Second),
		WaitBetweenArticles: envDuration("WAIT_BETWEEN_ARTICLES", time.Second),

		StateDir: envString("STATE_DIR", "logs"),

		ArchiveEndpoint:  os.Getenv("ARCHIVE_ENDPOINT"),
		ArchiveBucket:    envString("ARCHIVE_BUCKET", "articles-raw"),
		ArchiveAccessKey: os.Getenv("ARCHIVE_ACCESS_KEY"),
		ArchiveSecretKey: os.Getenv("ARCHIVE_SECRET_KEY"),
		ArchiveSecure:    envBool("ARCHIVE_SECURE", false),
	}
}

// Validate returns an aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	var errors []string
	if c.IndexAPIKey == "" && c.IndexAPIKeyURL == "" {
		errors = append(errors, "missing PINECONE_API_KEY (or PINECONE_API_KEY_URL)")
	}
	if c.IndexName == "" {
		errors = append(errors, "missing PINECONE_INDEX_NAME")
	}
	if c.Dimension <= 0 {
		errors = append(errors, "EMBEDDING_DIMENSION must be > 0")
	}
	if c.Concurrency <= 0 {
		errors = append(errors, "CONCURRENCY_LIMIT must be > 0")
	}
	if len(errors) > 0 {
		return fmt.Errorf("invalid configuration: %v", errors)
	}
	return nil
}

// ValidateBot extends Validate with the settings only the bot needs.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.TelegramToken == "" && c.TelegramTokenURL == "" {
		return fmt.Errorf("invalid configuration: missing TELEGRAM_TOKEN (or TELEGRAM_TOKEN_URL)")
	}
	return nil
}

func envString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if ret, err := strconv.Atoi(value); err == nil {
			return ret
		}
	}
	return defaultValue
}

func envFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if ret, err := strconv.ParseFloat(value, 64); err == nil {
			return ret
		}
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if ret, err := strconv.ParseBool(value); err == nil {
			return ret
		}
	}
	return defaultValue
}

// envDuration reads a duration either as a plain number of seconds (the
// format the original deployment used) or as a Go duration literal.
func envDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
