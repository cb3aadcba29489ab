package vector

import (
	"context"
	"reflect"
	"strings"

	"github.com/paperlab/querybot/service/types"
)

const Name = "ml/vector"

func (c *Client) Name() string {
	return Name
}

func (c *Client) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "upsert",
			Description: "Stores embedding vectors with article metadata.",
			Input:       reflect.TypeOf(&UpsertInput{}),
			Output:      reflect.TypeOf(&UpsertOutput{}),
		},
		{
			Name:        "query",
			Description: "Finds the closest stored articles for a query embedding.",
			Input:       reflect.TypeOf(&QueryInput{}),
			Output:      reflect.TypeOf(&QueryOutput{}),
		},
	}
}

func (c *Client) upsert(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*UpsertInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*UpsertOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return c.Upsert(ctx, input, output)
}

func (c *Client) query(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*QueryInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*QueryOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return c.Query(ctx, input, output)
}

// Method returns method by Name
func (c *Client) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "upsert":
		return c.upsert, nil
	case "query":
		return c.query, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}
