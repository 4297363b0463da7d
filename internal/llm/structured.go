package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"github.com/justestif/moodtunes/internal/logging"
)

// DefaultStructuredRetries is the number of extra attempts after a parse
// failure, a missing JSON block or a backend error.
const DefaultStructuredRetries = 2

var (
	fencedJSONBlock  = regexp.MustCompile("(?s)```json[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*```")
	fencedPlainBlock = regexp.MustCompile("(?s)```[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*```")
)

// StructuredRequest describes a structured extraction task.
type StructuredRequest struct {
	Task    string
	Context any
	// Format is shown to the model as the required JSON shape.
	Format any
	// Schema, when set, is passed to backends with native JSON modes.
	Schema  *Schema
	Retries int
}

// ExtractJSON finds the JSON payload in model output. It tries a fenced
// ```json block, then any fenced block, then the first balanced {...}
// object.
func ExtractJSON(text string) (string, bool) {
	if m := fencedJSONBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := fencedPlainBlock.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return balancedObject(text)
}

// balancedObject returns the first {...} span whose braces balance,
// ignoring braces inside JSON strings.
func balancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// StructuredPrompt renders the extraction prompt sent to the backend.
func StructuredPrompt(req StructuredRequest) string {
	ctxJSON, _ := json.MarshalIndent(req.Context, "", "  ")
	formatJSON, _ := json.MarshalIndent(req.Format, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", strings.TrimSpace(req.Task))
	fmt.Fprintf(&b, "Context:\n%s\n\n", ctxJSON)
	b.WriteString("IMPORTANT INSTRUCTIONS:\n")
	b.WriteString("1. You must provide a response in the exact JSON format specified below.\n")
	b.WriteString("2. Do not include any explanations, notes, or markdown formatting.\n")
	b.WriteString("3. Only include songs that are appropriate for all audiences.\n")
	b.WriteString("4. Focus on well-known songs that are likely to be available on YouTube.\n")
	b.WriteString("5. Do not include any songs with explicit content.\n\n")
	fmt.Fprintf(&b, "Required JSON format:\n%s\n\nResponse:\n", formatJSON)
	return b.String()
}

// GenerateStructured asks g for a JSON object and decodes it into T.
// It makes at most 1 + req.Retries attempts (Retries defaults to
// DefaultStructuredRetries when zero) and returns the last failure.
func GenerateStructured[T any](ctx context.Context, g Generator, req StructuredRequest) (T, error) {
	var zero T
	retries := req.Retries
	if retries <= 0 {
		retries = DefaultStructuredRetries
	}
	prompt := StructuredPrompt(req)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			logging.Ctx(ctx).Warn().Err(lastErr).Int("retries_left", retries-attempt+1).Msg("retrying structured response")
		}

		text, err := g.Generate(ctx, prompt, req.Schema)
		if err != nil {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			lastErr = fmt.Errorf("generating structured response: %w", err)
			continue
		}

		raw, ok := ExtractJSON(text)
		if !ok {
			lastErr = ErrNoJSON
			continue
		}

		var out T
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrInvalidJSON, err)
			continue
		}
		return out, nil
	}
	return zero, lastErr
}
