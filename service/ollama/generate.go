package ollama

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/paperlab/querybot/internal/backoff"
	"github.com/paperlab/querybot/internal/clock"
	"github.com/paperlab/querybot/tracing"
)

// GenerateInput defines parameters for text generation
type GenerateInput struct {
	Prompt string `json:"prompt" required:"true" description:"prompt passed to the model"`
	Model  string `json:"model,omitempty" description:"model override; defaults to the client model"`
}

// GenerateOutput contains the generated text
type GenerateOutput struct {
	Text string `json:"text,omitempty" description:"generated text"`
}

// Generate produces text for the supplied prompt.
func (c *Client) Generate(ctx context.Context, input *GenerateInput, output *GenerateOutput) (err error) {
	ctx, span := tracing.StartSpan(ctx, "ollama.Generate", "CLIENT")
	defer tracing.EndSpan(span, err)

	model := input.Model
	if model == "" {
		model = c.model
	}
	payload := map[string]interface{}{
		"model":  model,
		"prompt": input.Prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": c.options.Temperature,
			"num_predict": c.options.NumPredict,
			"top_p":       c.options.TopP,
			"top_k":       c.options.TopK,
		},
	}
	var response struct {
		Response string `json:"response"`
	}
	err = backoff.Retry(ctx, c.retry, func() error {
		return c.post(ctx, "/api/generate", payload, &response)
	})
	if err != nil {
		return err
	}
	output.Text = strings.TrimSpace(response.Response)
	return nil
}

// SummarizeInput carries the scraped article fields to condense.
type SummarizeInput struct {
	Title    string `json:"title,omitempty" description:"article title"`
	Abstract string `json:"abstract,omitempty" description:"article abstract"`
	Content  string `json:"content,omitempty" description:"article body"`
	Link     string `json:"link,omitempty" description:"canonical article URL"`
}

// SummarizeOutput is the condensed article ready for embedding.
type SummarizeOutput struct {
	Title     string `json:"title,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Link      string `json:"link,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// maxContentChars bounds how much article body goes into the prompt.
const maxContentChars = 3000

// summaryPrefixes are chatty lead-ins some models insist on; they are
// stripped from the result.
var summaryPrefixes = []string{
	"Here’s a summary of the research article:",
	"Here’s a 150-word summary of the article:",
	"Here's a summary of the research article:",
	"Here's a 150-word summary of the article:",
}

// Summarize condenses an article to roughly 150 words.
func (c *Client) Summarize(ctx context.Context, input *SummarizeInput, output *SummarizeOutput) error {
	content := prepareContent(input)
	if content == "" {
		return fmt.Errorf("no content to summarize")
	}
	prompt := "Provide a concise summary of the following research article in about 150 words. " +
		"Do NOT include any introductory or concluding phrases such as " +
		"'Here’s a summary' or 'In conclusion'. " +
		"Return only the plain summary text without any additional commentary or labels:\n\n" +
		content + "\n\nSummary:"

	generated := &GenerateOutput{}
	if err := c.Generate(ctx, &GenerateInput{Prompt: prompt}, generated); err != nil {
		return err
	}
	summary := generated.Text
	for _, prefix := range summaryPrefixes {
		if strings.HasPrefix(summary, prefix) {
			summary = strings.TrimSpace(summary[len(prefix):])
		}
	}
	if summary == "" {
		return fmt.Errorf("model returned an empty summary")
	}
	output.Title = input.Title
	output.Summary = summary
	output.Link = input.Link
	output.Timestamp = clock.Now().UTC().Format("2006-01-02T15:04:05Z07:00")
	return nil
}

func prepareContent(input *SummarizeInput) string {
	var parts []string
	if input.Title != "" {
		parts = append(parts, "Title: "+input.Title)
	}
	if input.Abstract != "" {
		parts = append(parts, "Abstract: "+input.Abstract)
	}
	if input.Content != "" {
		parts = append(parts, "Content: "+truncate(input.Content, maxContentChars))
	}
	return strings.Join(parts, "\n\n")
}

// truncate cuts text at a rune boundary at most limit bytes in, so the
// prompt never carries a split multi-byte rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + "..."
}
