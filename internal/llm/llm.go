// Package llm defines the generative backend contract shared by the mood
// analyzer and the response composer, plus structured JSON extraction.
package llm

import (
	"context"
	"errors"

	"github.com/justestif/moodtunes/internal/music"
)

// Sentinel errors.
var (
	// ErrNoJSON is returned when a structured response contains no JSON block.
	ErrNoJSON = errors.New("no structured data found in response")

	// ErrInvalidJSON is returned when the extracted JSON block does not decode.
	ErrInvalidJSON = errors.New("invalid JSON response")

	// ErrEmptyResponse is returned when a backend answers with no text.
	ErrEmptyResponse = errors.New("empty response from model")
)

// Generator is a generative text backend.
type Generator interface {
	// Chat continues history with prompt as the next user turn.
	Chat(ctx context.Context, prompt string, history []music.Message) (string, error)

	// Generate answers a single prompt. A non-nil schema asks the backend
	// for JSON output conforming to it where the backend supports that.
	Generate(ctx context.Context, prompt string, schema *Schema) (string, error)
}

// Sampling holds generation parameters. Backends ignore the fields they
// cannot express.
type Sampling struct {
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int
}

// DefaultSampling returns the conversational sampling parameters.
func DefaultSampling() Sampling {
	return Sampling{
		Temperature: 0.7,
		TopP:        0.8,
		TopK:        40,
		MaxTokens:   1024,
	}
}
