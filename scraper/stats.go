package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/paperlab/querybot/internal/clock"
)

// Stats counts pipeline outcomes across a run.
type Stats struct {
	StartedAt  time.Time `json:"startedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Pages      int       `json:"pages"`
	Scraped    int       `json:"scraped"`
	Skipped    int       `json:"skipped"`
	Summarized int       `json:"summarized"`
	Indexed    int       `json:"indexed"`
	Failed     int       `json:"failed"`
}

// Collector accumulates Stats safely across workers.
type Collector struct {
	mux   sync.Mutex
	stats Stats
}

// NewCollector creates run statistics stamped with the current time.
func NewCollector() *Collector {
	return &Collector{stats: Stats{StartedAt: clock.Now()}}
}

// Add applies a delta to a named counter.
func (c *Collector) Add(counter string, delta int) {
	c.mux.Lock()
	defer c.mux.Unlock()
	switch counter {
	case "pages":
		c.stats.Pages += delta
	case "scraped":
		c.stats.Scraped += delta
	case "skipped":
		c.stats.Skipped += delta
	case "summarized":
		c.stats.Summarized += delta
	case "indexed":
		c.stats.Indexed += delta
	case "failed":
		c.stats.Failed += delta
	}
	c.stats.UpdatedAt = clock.Now()
}

// Snapshot returns a copy safe to read concurrently.
func (c *Collector) Snapshot() Stats {
	c.mux.Lock()
	defer c.mux.Unlock()
	return c.stats
}

// Save persists the statistics.
func (c *Collector) Save(ctx context.Context, fs afs.Service, URL string) error {
	snapshot := c.Snapshot()
	data, err := json.MarshalIndent(&snapshot, "", "  ")
	if err != nil {
		return err
	}
	if err = fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save stats %v: %w", URL, err)
	}
	return nil
}
