package ollama

import (
	"context"
	"reflect"
	"strings"

	"github.com/paperlab/querybot/service/types"
)

const Name = "ml/ollama"

func (c *Client) Name() string {
	return Name
}

func (c *Client) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "generate",
			Description: "Generates text for a prompt using the configured model.",
			Input:       reflect.TypeOf(&GenerateInput{}),
			Output:      reflect.TypeOf(&GenerateOutput{}),
		},
		{
			Name:        "summarize",
			Description: "Condenses a scraped article to roughly 150 words.",
			Input:       reflect.TypeOf(&SummarizeInput{}),
			Output:      reflect.TypeOf(&SummarizeOutput{}),
		},
		{
			Name:        "embed",
			Description: "Creates an embedding vector for the supplied text.",
			Input:       reflect.TypeOf(&EmbedInput{}),
			Output:      reflect.TypeOf(&EmbedOutput{}),
		},
	}
}

func (c *Client) generate(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*GenerateInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*GenerateOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return c.Generate(ctx, input, output)
}

func (c *Client) summarize(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*SummarizeInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*SummarizeOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return c.Summarize(ctx, input, output)
}

func (c *Client) embed(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*EmbedInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*EmbedOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return c.Embed(ctx, input, output)
}

// Method returns method by Name
func (c *Client) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "generate":
		return c.generate, nil
	case "summarize":
		return c.summarize, nil
	case "embed":
		return c.embed, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}
