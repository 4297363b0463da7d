// Package ollama implements llm.Generator against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/justestif/moodtunes/internal/llm"
	"github.com/justestif/moodtunes/internal/music"
)

const (
	defaultBaseURL = "http://localhost:11434"
	// DefaultModel is used when no model is configured.
	DefaultModel = "llama3.1:8b"
)

// Client talks to Ollama's /api/chat endpoint.
type Client struct {
	baseURL    string
	model      string
	sampling   llm.Sampling
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
	NumPredict  int     `json:"num_predict"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   any           `json:"format,omitempty"`
	Options  chatOptions   `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

// New creates an Ollama client.
func New(baseURL, model string, sampling llm.Sampling, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		model:      model,
		sampling:   sampling,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Chat sends history followed by prompt as the newest user turn.
func (c *Client) Chat(ctx context.Context, prompt string, history []music.Message) (string, error) {
	msgs := make([]chatMessage, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: prompt})
	return c.chat(ctx, msgs, nil)
}

// Generate answers a single prompt. A schema is forwarded as Ollama's
// structured output format.
func (c *Client) Generate(ctx context.Context, prompt string, schema *llm.Schema) (string, error) {
	var format any
	if schema != nil {
		format = schema.Definition
	}
	return c.chat(ctx, []chatMessage{{Role: "user", Content: prompt}}, format)
}

func (c *Client) chat(ctx context.Context, msgs []chatMessage, format any) (string, error) {
	payload := chatRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   false,
		Format:   format,
		Options: chatOptions{
			Temperature: c.sampling.Temperature,
			TopP:        c.sampling.TopP,
			TopK:        c.sampling.TopK,
			NumPredict:  c.sampling.MaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama: %s", parsed.Error)
	}
	if strings.TrimSpace(parsed.Message.Content) == "" {
		return "", llm.ErrEmptyResponse
	}
	return parsed.Message.Content, nil
}
