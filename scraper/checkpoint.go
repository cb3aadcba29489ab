package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// Checkpoint records crawl progress so an interrupted run resumes where it
// stopped instead of re-scraping from page one.
type Checkpoint struct {
	Page      int      `json:"page"`
	NextIndex int      `json:"nextIndex"`
	Processed []string `json:"processed,omitempty"`

	processed map[string]bool
}

// NewCheckpoint creates an empty checkpoint starting at page 1.
func NewCheckpoint() *Checkpoint {
	return &Checkpoint{Page: 1, processed: map[string]bool{}}
}

// IsProcessed reports whether a point ID was already indexed.
func (c *Checkpoint) IsProcessed(id string) bool {
	return c.processed[id]
}

// MarkProcessed records a point ID as indexed.
func (c *Checkpoint) MarkProcessed(id string) {
	if c.processed[id] {
		return
	}
	c.processed[id] = true
	c.Processed = append(c.Processed, id)
}

// LoadCheckpoint reads a checkpoint; a missing file yields a fresh one.
func LoadCheckpoint(ctx context.Context, fs afs.Service, URL string) (*Checkpoint, error) {
	exists, err := fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check checkpoint %v: %w", URL, err)
	}
	if !exists {
		return NewCheckpoint(), nil
	}
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint %v: %w", URL, err)
	}
	ret := NewCheckpoint()
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("invalid checkpoint %v: %w", URL, err)
	}
	for _, id := range ret.Processed {
		ret.processed[id] = true
	}
	return ret, nil
}

// Save persists the checkpoint.
func (c *Checkpoint) Save(ctx context.Context, fs afs.Service, URL string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err = fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save checkpoint %v: %w", URL, err)
	}
	return nil
}
