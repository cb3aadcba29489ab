package ollama

import (
	"context"
	"fmt"

	"github.com/paperlab/querybot/internal/backoff"
	"github.com/paperlab/querybot/tracing"
)

// EmbedInput defines parameters for creating an embedding
type EmbedInput struct {
	Text  string `json:"text" required:"true" description:"text to embed"`
	Model string `json:"model,omitempty" description:"model override; defaults to the client embed model"`
}

// EmbedOutput contains the embedding vector
type EmbedOutput struct {
	Vector []float64 `json:"vector,omitempty" description:"embedding vector"`
}

// Embed creates an embedding vector for the supplied text.
func (c *Client) Embed(ctx context.Context, input *EmbedInput, output *EmbedOutput) (err error) {
	ctx, span := tracing.StartSpan(ctx, "ollama.Embed", "CLIENT")
	defer tracing.EndSpan(span, err)

	if input.Text == "" {
		return fmt.Errorf("text to embed is required")
	}
	model := input.Model
	if model == "" {
		model = c.embedModel
	}
	var response struct {
		Embeddings [][]float64 `json:"embeddings"`
	}
	err = backoff.Retry(ctx, c.retry, func() error {
		return c.post(ctx, "/api/embed", map[string]interface{}{"model": model, "input": input.Text}, &response)
	})
	if err != nil {
		return err
	}
	if len(response.Embeddings) == 0 || len(response.Embeddings[0]) == 0 {
		return fmt.Errorf("server returned no embedding")
	}
	output.Vector = response.Embeddings[0]
	return nil
}
