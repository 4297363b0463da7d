package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/justestif/moodtunes/internal/music"
)

// scriptedGenerator returns canned responses in order.
type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     atomic.Int32
	schemas   []*Schema
}

func (g *scriptedGenerator) Chat(context.Context, string, []music.Message) (string, error) {
	return "", errors.New("not used")
}

func (g *scriptedGenerator) Generate(_ context.Context, _ string, schema *Schema) (string, error) {
	i := int(g.calls.Add(1)) - 1
	g.schemas = append(g.schemas, schema)
	var err error
	if i < len(g.errs) {
		err = g.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", nil
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "fenced json",
			text:   "Here you go:\n```json\n{\"a\": 1}\n```\nthanks",
			want:   `{"a": 1}`,
			wantOK: true,
		},
		{
			name:   "fenced plain",
			text:   "```\n{\"b\": 2}\n```",
			want:   `{"b": 2}`,
			wantOK: true,
		},
		{
			name:   "fenced json preferred over plain",
			text:   "```\nnot this\n```\n```json\n{\"c\": 3}\n```",
			want:   `{"c": 3}`,
			wantOK: true,
		},
		{
			name:   "bare nested object",
			text:   `Sure! {"primaryMood": "sad", "moodScores": {"sad": 0.9}} hope that helps`,
			want:   `{"primaryMood": "sad", "moodScores": {"sad": 0.9}}`,
			wantOK: true,
		},
		{
			name:   "braces inside strings",
			text:   `{"reasoning": "user typed } and {", "x": 1}`,
			want:   `{"reasoning": "user typed } and {", "x": 1}`,
			wantOK: true,
		},
		{
			name:   "no json",
			text:   "I cannot help with that.",
			wantOK: false,
		},
		{
			name:   "unterminated",
			text:   `{"a": {"b": 1}`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ExtractJSON() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

type payload struct {
	Mood  string  `json:"mood"`
	Score float64 `json:"score"`
}

func TestGenerateStructured(t *testing.T) {
	tests := []struct {
		name      string
		responses []string
		errs      []error
		want      payload
		wantErr   error
		wantCalls int32
	}{
		{
			name:      "first attempt succeeds",
			responses: []string{`{"mood": "happy", "score": 0.9}`},
			want:      payload{Mood: "happy", Score: 0.9},
			wantCalls: 1,
		},
		{
			name:      "recovers after missing json",
			responses: []string{"no idea", "```json\n{\"mood\": \"sad\", \"score\": 0.4}\n```"},
			want:      payload{Mood: "sad", Score: 0.4},
			wantCalls: 2,
		},
		{
			name:      "recovers after backend error",
			responses: []string{"", "", `{"mood": "calm"}`},
			errs:      []error{errors.New("boom"), errors.New("boom")},
			want:      payload{Mood: "calm"},
			wantCalls: 3,
		},
		{
			name:      "gives up on invalid json",
			responses: []string{`{"mood": 5}`, `{"mood": 5}`, `{"mood": 5}`},
			wantErr:   ErrInvalidJSON,
			wantCalls: 3,
		},
		{
			name:      "gives up without json",
			responses: []string{"a", "b", "c"},
			wantErr:   ErrNoJSON,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &scriptedGenerator{responses: tt.responses, errs: tt.errs}
			got, err := GenerateStructured[payload](context.Background(), g, StructuredRequest{
				Task:   "classify",
				Format: map[string]string{"mood": "string"},
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GenerateStructured() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("GenerateStructured() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GenerateStructured() = %+v, want %+v", got, tt.want)
			}
			if n := g.calls.Load(); n != tt.wantCalls {
				t.Errorf("calls = %d, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestGenerateStructuredStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := &scriptedGenerator{errs: []error{context.Canceled, context.Canceled, context.Canceled}}
	_, err := GenerateStructured[payload](ctx, g, StructuredRequest{Task: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if n := g.calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestSchemaForIsStrict(t *testing.T) {
	type inner struct {
		Happy float64 `json:"happy"`
	}
	type outer struct {
		Mood   string `json:"mood"`
		Scores inner  `json:"scores"`
	}

	s := SchemaFor[outer]("Outer", "test")
	if s.Definition["additionalProperties"] != false {
		t.Errorf("additionalProperties = %v, want false", s.Definition["additionalProperties"])
	}
	required, _ := s.Definition["required"].([]string)
	if len(required) != 2 {
		t.Errorf("required = %v, want 2 entries", s.Definition["required"])
	}
	props := s.Definition["properties"].(map[string]any)
	scores := props["scores"].(map[string]any)
	if scores["additionalProperties"] != false {
		t.Errorf("nested additionalProperties = %v, want false", scores["additionalProperties"])
	}
}
