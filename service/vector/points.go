package vector

import (
	"context"
	"fmt"
	"net/url"

	"github.com/paperlab/querybot/internal/backoff"
	"github.com/paperlab/querybot/tracing"
)

// Point is a single stored vector with its article metadata.
type Point struct {
	ID       string            `json:"id"`
	Values   []float64         `json:"values,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Match is a query result.
type Match struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// UpsertInput defines vectors to store
type UpsertInput struct {
	Points []*Point `json:"points" required:"true" description:"vectors to upsert"`
}

// UpsertOutput reports how many vectors were written
type UpsertOutput struct {
	Upserted int `json:"upserted,omitempty"`
}

// Upsert writes the supplied points to the index.
func (c *Client) Upsert(ctx context.Context, input *UpsertInput, output *UpsertOutput) (err error) {
	ctx, span := tracing.StartSpan(ctx, "vector.Upsert", "CLIENT")
	defer tracing.EndSpan(span, err)

	if len(input.Points) == 0 {
		return fmt.Errorf("points are required")
	}
	for _, point := range input.Points {
		if len(point.Values) != c.dimension {
			return fmt.Errorf("point %v has dimension %v, expected %v", point.ID, len(point.Values), c.dimension)
		}
	}
	URL, err := c.dataURL("/vectors/upsert")
	if err != nil {
		return err
	}
	var response struct {
		UpsertedCount int `json:"upsertedCount"`
	}
	err = backoff.Retry(ctx, c.retry, func() error {
		return c.call(ctx, "POST", URL, map[string]interface{}{"vectors": input.Points}, &response)
	})
	if err != nil {
		return err
	}
	output.Upserted = response.UpsertedCount
	return nil
}

// QueryInput defines a similarity search
type QueryInput struct {
	Vector []float64 `json:"vector" required:"true" description:"query embedding"`
	TopK   int       `json:"topK,omitempty" description:"number of matches to return; defaults to 1"`
}

// QueryOutput holds the closest matches
type QueryOutput struct {
	Matches []*Match `json:"matches,omitempty"`
}

// Query returns the closest matches for the supplied embedding.
func (c *Client) Query(ctx context.Context, input *QueryInput, output *QueryOutput) (err error) {
	ctx, span := tracing.StartSpan(ctx, "vector.Query", "CLIENT")
	defer tracing.EndSpan(span, err)

	if len(input.Vector) == 0 {
		return fmt.Errorf("query vector is required")
	}
	topK := input.TopK
	if topK == 0 {
		topK = 1
	}
	URL, err := c.dataURL("/query")
	if err != nil {
		return err
	}
	payload := map[string]interface{}{
		"vector":          input.Vector,
		"topK":            topK,
		"includeMetadata": true,
	}
	var response struct {
		Matches []*Match `json:"matches"`
	}
	err = backoff.Retry(ctx, c.retry, func() error {
		return c.call(ctx, "POST", URL, payload, &response)
	})
	if err != nil {
		return err
	}
	output.Matches = response.Matches
	return nil
}

// Exists reports whether all supplied IDs are already stored.
func (c *Client) Exists(ctx context.Context, ids ...string) (bool, error) {
	if len(ids) == 0 {
		return false, fmt.Errorf("ids are required")
	}
	// the fetch API takes one ids parameter per vector
	values := url.Values{}
	for _, id := range ids {
		values.Add("ids", id)
	}
	URL, err := c.dataURL("/vectors/fetch?" + values.Encode())
	if err != nil {
		return false, err
	}
	var response struct {
		Vectors map[string]*Point `json:"vectors"`
	}
	if err = c.call(ctx, "GET", URL, nil, &response); err != nil {
		return false, err
	}
	for _, id := range ids {
		if _, ok := response.Vectors[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// Stats describes the index size.
type Stats struct {
	VectorCount int `json:"totalVectorCount"`
	Dimension   int `json:"dimension"`
}

// DescribeStats returns index statistics.
func (c *Client) DescribeStats(ctx context.Context) (*Stats, error) {
	URL, err := c.dataURL("/describe_index_stats")
	if err != nil {
		return nil, err
	}
	stats := &Stats{}
	if err = c.call(ctx, "POST", URL, map[string]interface{}{}, stats); err != nil {
		return nil, err
	}
	return stats, nil
}
