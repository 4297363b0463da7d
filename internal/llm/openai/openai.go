// Package openai implements llm.Generator on the OpenAI Responses API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/justestif/moodtunes/internal/llm"
	"github.com/justestif/moodtunes/internal/music"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// Client is an OpenAI-backed llm.Generator. TopK has no equivalent in the
// Responses API and is ignored.
type Client struct {
	api      openai.Client
	model    string
	sampling llm.Sampling
}

// New creates a client. Extra request options (base URL, HTTP client) are
// passed through to the SDK.
func New(apiKey, model string, sampling llm.Sampling, opts ...option.RequestOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		api:      openai.NewClient(opts...),
		model:    model,
		sampling: sampling,
	}
}

// Chat sends history followed by prompt as the newest user turn.
func (c *Client) Chat(ctx context.Context, prompt string, history []music.Message) (string, error) {
	return c.send(ctx, c.params(inputItems(history, prompt), nil))
}

// Generate answers a single prompt, using strict JSON schema output when
// schema is set.
func (c *Client) Generate(ctx context.Context, prompt string, schema *llm.Schema) (string, error) {
	return c.send(ctx, c.params(inputItems(nil, prompt), schema))
}

func (c *Client) send(ctx context.Context, params responses.ResponseNewParams) (string, error) {
	resp, err := c.api.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: creating response: %w", err)
	}
	text := resp.OutputText()
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) params(input []responses.ResponseInputItemUnionParam, schema *llm.Schema) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(int64(c.sampling.MaxTokens)),
		Temperature:     openai.Float(c.sampling.Temperature),
		TopP:            openai.Float(c.sampling.TopP),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
	}
	if schema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        schema.Name,
					Schema:      schema.Definition,
					Strict:      openai.Bool(true),
					Description: openai.String(schema.Description),
					Type:        "json_schema",
				},
			},
		}
	}
	return params
}

func inputItems(history []music.Message, prompt string) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(history)+1)
	for _, m := range history {
		role := responses.EasyInputMessageRoleUser
		if m.Role == music.RoleAssistant {
			role = responses.EasyInputMessageRoleAssistant
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(m.Content, role))
	}
	return append(items, responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser))
}
