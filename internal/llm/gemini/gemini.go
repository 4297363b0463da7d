// Package gemini implements llm.Generator on the Google Gen AI SDK.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/justestif/moodtunes/internal/llm"
	"github.com/justestif/moodtunes/internal/music"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Client is a Gemini-backed llm.Generator.
type Client struct {
	models   *genai.Models
	model    string
	sampling llm.Sampling
}

// New creates a Gemini client for the Gemini Developer API.
func New(ctx context.Context, apiKey, model string, sampling llm.Sampling) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Client{models: gc.Models, model: model, sampling: sampling}, nil
}

// Chat replays history as user/model turns and sends prompt as the next
// user turn.
func (c *Client) Chat(ctx context.Context, prompt string, history []music.Message) (string, error) {
	contents := toContents(history)
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
	return c.generate(ctx, contents, c.config())
}

// Generate answers a single prompt. With a schema the model is put into
// JSON output mode.
func (c *Client) Generate(ctx context.Context, prompt string, schema *llm.Schema) (string, error) {
	cfg := c.config()
	if schema != nil {
		cfg.ResponseMIMEType = "application/json"
	}
	return c.generate(ctx, []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, cfg)
}

func (c *Client) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generating content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) config() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(c.sampling.Temperature)),
		TopP:            genai.Ptr(float32(c.sampling.TopP)),
		TopK:            genai.Ptr(float32(c.sampling.TopK)),
		MaxOutputTokens: int32(c.sampling.MaxTokens),
	}
}

// toContents maps conversation roles onto Gemini's user/model roles.
func toContents(history []music.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.RoleUser
		if m.Role != music.RoleUser {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}
