package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"

	"github.com/paperlab/querybot/service/messaging/memory"
	"github.com/paperlab/querybot/service/ollama"
	"github.com/paperlab/querybot/service/vector"
	"github.com/paperlab/querybot/tracing"
)

// Summarizer condenses scraped articles.
type Summarizer interface {
	Summarize(ctx context.Context, input *ollama.SummarizeInput, output *ollama.SummarizeOutput) error
}

// Embedder creates embeddings for article summaries.
type Embedder interface {
	Embed(ctx context.Context, input *ollama.EmbedInput, output *ollama.EmbedOutput) error
}

// Indexer stores vectors and answers existence checks.
type Indexer interface {
	Upsert(ctx context.Context, input *vector.UpsertInput, output *vector.UpsertOutput) error
	Exists(ctx context.Context, ids ...string) (bool, error)
}

// Archiver stores raw article payloads; nil disables archiving.
type Archiver interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
}

// job is one article to index; Index is global across the run so point IDs
// stay stable between resumed runs.
type job struct {
	Index int
	URL   string
}

// Pipeline crawls listing pages and indexes each article.
type Pipeline struct {
	fetcher    *Fetcher
	summarizer Summarizer
	embedder   Embedder
	index      Indexer
	archiver   Archiver
	fs         afs.Service

	baseSearchURL string
	checkpointURL string
	statsURL      string
	concurrency   int
	dimension     int
	pageDelay     time.Duration
	articleDelay  time.Duration

	stats      *Collector
	checkpoint *Checkpoint
	mux        sync.Mutex
}

// PipelineOption customises a Pipeline.
type PipelineOption func(*Pipeline)

// WithArchiver enables raw payload archiving.
func WithArchiver(archiver Archiver) PipelineOption {
	return func(p *Pipeline) { p.archiver = archiver }
}

// WithFileSystem overrides the checkpoint/stats file system.
func WithFileSystem(fs afs.Service) PipelineOption {
	return func(p *Pipeline) { p.fs = fs }
}

// WithStateURLs sets where checkpoint and stats are persisted; empty URLs
// disable persistence.
func WithStateURLs(checkpointURL, statsURL string) PipelineOption {
	return func(p *Pipeline) {
		p.checkpointURL = checkpointURL
		p.statsURL = statsURL
	}
}

// WithConcurrency sets how many articles are processed in parallel.
func WithConcurrency(concurrency int) PipelineOption {
	return func(p *Pipeline) {
		if concurrency > 0 {
			p.concurrency = concurrency
		}
	}
}

// WithDimension sets the expected embedding dimension.
func WithDimension(dimension int) PipelineOption {
	return func(p *Pipeline) { p.dimension = dimension }
}

// WithDelays sets politeness pauses between pages and between articles.
func WithDelays(pageDelay, articleDelay time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.pageDelay = pageDelay
		p.articleDelay = articleDelay
	}
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(fetcher *Fetcher, summarizer Summarizer, embedder Embedder, index Indexer, baseSearchURL string, options ...PipelineOption) *Pipeline {
	ret := &Pipeline{
		fetcher:       fetcher,
		summarizer:    summarizer,
		embedder:      embedder,
		index:         index,
		fs:            afs.New(),
		baseSearchURL: baseSearchURL,
		concurrency:   3,
		dimension:     384,
		pageDelay:     5 * time.Second,
		articleDelay:  time.Second,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Run crawls up to pages listing pages, resuming from the last checkpoint,
// and returns the run statistics.
func (p *Pipeline) Run(ctx context.Context, pages int) (ret Stats, err error) {
	ctx, span := tracing.StartSpan(ctx, "scraper.Run", "INTERNAL")
	defer tracing.EndSpan(span, err)

	p.stats = NewCollector()
	if p.checkpoint, err = p.loadCheckpoint(ctx); err != nil {
		return ret, err
	}
	firstPage := p.checkpoint.Page
	for page := firstPage; page < firstPage+pages; page++ {
		if ctx.Err() != nil {
			break
		}
		if page > firstPage && p.pageDelay > 0 {
			time.Sleep(p.pageDelay)
		}
		if err = p.runPage(ctx, page); err != nil {
			return p.stats.Snapshot(), err
		}
		p.checkpoint.Page = page + 1
		if err = p.saveState(ctx); err != nil {
			return p.stats.Snapshot(), err
		}
	}
	return p.stats.Snapshot(), nil
}

func (p *Pipeline) runPage(ctx context.Context, page int) error {
	listingURL := pageURL(p.baseSearchURL, page)
	body, err := p.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		return fmt.Errorf("failed to fetch listing page %v: %w", page, err)
	}
	links, err := ExtractArticleLinks(body, listingURL)
	if err != nil {
		return fmt.Errorf("failed to parse listing page %v: %w", page, err)
	}
	p.stats.Add("pages", 1)
	if len(links) == 0 {
		log.Printf("page %v has no article links", page)
		return nil
	}

	// each job is delivered exactly once; failures go straight to the DLQ
	queue := memory.NewQueue[job](memory.Config{MaxRetries: 0, DeadLetter: true, QueueBuffer: len(links)})
	var pending sync.WaitGroup
	for _, link := range links {
		pending.Add(1)
		if err = queue.Publish(ctx, &job{Index: p.checkpoint.NextIndex, URL: link}); err != nil {
			pending.Done()
			return err
		}
		p.checkpoint.NextIndex++
	}

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	for i := 0; i < p.concurrency; i++ {
		go p.worker(workerCtx, queue, &pending)
	}
	pending.Wait()

	if failed := queue.DLQSize(); failed > 0 {
		log.Printf("page %v: %v article(s) failed", page, failed)
	}
	return nil
}

func (p *Pipeline) worker(ctx context.Context, queue *memory.Queue[job], pending *sync.WaitGroup) {
	for {
		message, err := queue.Consume(ctx)
		if err != nil {
			return
		}
		item := message.T()
		if err := p.process(ctx, item); err != nil {
			log.Printf("failed to index %v: %v", item.URL, err)
			p.stats.Add("failed", 1)
			_ = message.Nack(err)
		} else {
			_ = message.Ack()
		}
		pending.Done()
		if p.articleDelay > 0 {
			time.Sleep(p.articleDelay)
		}
	}
}

func (p *Pipeline) process(ctx context.Context, item *job) (err error) {
	ctx, span := tracing.StartSpan(ctx, "scraper.process", "INTERNAL")
	defer tracing.EndSpan(span, err)

	id := vector.UniqueID(item.Index, item.URL)
	if p.isProcessed(id) {
		p.stats.Add("skipped", 1)
		return nil
	}
	exists, err := p.index.Exists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		p.markProcessed(id)
		p.stats.Add("skipped", 1)
		return nil
	}

	body, err := p.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		return err
	}
	p.stats.Add("scraped", 1)
	if p.archiver != nil {
		if err := p.archiver.Store(ctx, id+".html", body, "text/html"); err != nil {
			log.Printf("failed to archive %v: %v", item.URL, err)
		}
	}
	article, err := ParseArticle(body, item.URL)
	if err != nil {
		return err
	}

	summary := &ollama.SummarizeOutput{}
	err = p.summarizer.Summarize(ctx, &ollama.SummarizeInput{
		Title:    article.Title,
		Abstract: article.Abstract,
		Content:  article.Content,
		Link:     article.URL,
	}, summary)
	if err != nil {
		return err
	}
	p.stats.Add("summarized", 1)

	embedded := &ollama.EmbedOutput{}
	if err = p.embedder.Embed(ctx, &ollama.EmbedInput{Text: summary.Summary}, embedded); err != nil {
		return err
	}
	if len(embedded.Vector) != p.dimension {
		return fmt.Errorf("embedding for %v has dimension %v, expected %v", item.URL, len(embedded.Vector), p.dimension)
	}

	err = p.index.Upsert(ctx, &vector.UpsertInput{Points: []*vector.Point{
		{
			ID:     id,
			Values: embedded.Vector,
			Metadata: map[string]string{
				"title":     summary.Title,
				"summary":   summary.Summary,
				"link":      summary.Link,
				"timestamp": summary.Timestamp,
			},
		},
	}}, &vector.UpsertOutput{})
	if err != nil {
		return err
	}
	p.stats.Add("indexed", 1)
	p.markProcessed(id)
	return nil
}

func (p *Pipeline) isProcessed(id string) bool {
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.checkpoint.IsProcessed(id)
}

func (p *Pipeline) markProcessed(id string) {
	p.mux.Lock()
	defer p.mux.Unlock()
	p.checkpoint.MarkProcessed(id)
}

func (p *Pipeline) loadCheckpoint(ctx context.Context) (*Checkpoint, error) {
	if p.checkpointURL == "" {
		return NewCheckpoint(), nil
	}
	return LoadCheckpoint(ctx, p.fs, p.checkpointURL)
}

func (p *Pipeline) saveState(ctx context.Context) error {
	if p.checkpointURL != "" {
		if err := p.checkpoint.Save(ctx, p.fs, p.checkpointURL); err != nil {
			return err
		}
	}
	if p.statsURL != "" {
		if err := p.stats.Save(ctx, p.fs, p.statsURL); err != nil {
			return err
		}
	}
	return nil
}

func pageURL(baseURL string, page int) string {
	separator := "?"
	if strings.Contains(baseURL, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%v%vpage=%v", baseURL, separator, page)
}
