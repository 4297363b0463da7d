package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/justestif/moodtunes/internal/llm"
	"github.com/justestif/moodtunes/internal/music"
)

var recs = []music.Recommendation{
	{Title: "Lovely Day", Artist: "Bill Withers", YouTubeID: "abc"},
	{Title: "September", Artist: "Earth, Wind & Fire", YouTubeID: "def"},
}

func history(n int) []music.Message {
	h := make([]music.Message, n)
	for i := range h {
		h[i] = music.Message{Role: music.RoleUser, Content: "msg"}
		if i%2 == 1 {
			h[i].Role = music.RoleAssistant
		}
	}
	return h
}

func TestTemplateComposer(t *testing.T) {
	ctx := context.Background()
	c := NewTemplateComposer()

	t.Run("final names the top song", func(t *testing.T) {
		got, err := c.Compose(ctx, Request{
			Mode:            ModeFinal,
			Mood:            music.MoodAnalysis{PrimaryMood: "happy"},
			Recommendations: recs,
		})
		if err != nil {
			t.Fatal(err)
		}
		want := `Based on our conversation, I sense you're feeling happy. Here are some songs that might match your mood. My top recommendation is "Lovely Day" by Bill Withers.`
		if got != want {
			t.Errorf("got %q\nwant %q", got, want)
		}
		if strings.Contains(got, "September") {
			t.Error("final reply should not list other songs")
		}
	})

	t.Run("final without recommendations", func(t *testing.T) {
		got, _ := c.Compose(ctx, Request{Mode: ModeFinal, Mood: music.MoodAnalysis{}})
		if got != "Based on our conversation, I sense you're feeling neutral." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("acknowledge", func(t *testing.T) {
		got, _ := c.Compose(ctx, Request{Mode: ModeAcknowledge, Recommendations: recs})
		if got != "I'm analyzing your message to find the perfect music for you..." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("engage varies by history", func(t *testing.T) {
		first, _ := c.Compose(ctx, Request{Mode: ModeEngage, History: history(1)})
		early, _ := c.Compose(ctx, Request{Mode: ModeEngage, History: history(3)})
		if first == early {
			t.Error("first and early engage replies should differ")
		}
		for _, text := range []string{first, early} {
			if !strings.Contains(text, "?") {
				t.Errorf("engage reply %q should ask a question", text)
			}
		}
	})
}

// scriptedChat implements llm.Generator for Chat calls.
type scriptedChat struct {
	reply   string
	err     error
	prompt  string
	history []music.Message
}

func (s *scriptedChat) Chat(_ context.Context, prompt string, history []music.Message) (string, error) {
	s.prompt, s.history = prompt, history
	return s.reply, s.err
}

func (s *scriptedChat) Generate(context.Context, string, *llm.Schema) (string, error) {
	return "", errors.New("not used")
}

func TestGenerativeComposer(t *testing.T) {
	ctx := context.Background()

	t.Run("returns backend reply", func(t *testing.T) {
		gen := &scriptedChat{reply: "  You seem upbeat! Try Lovely Day.  "}
		h := history(6)
		got, err := NewGenerativeComposer(gen).Compose(ctx, Request{Mode: ModeAcknowledge, History: h})
		if err != nil || got != "You seem upbeat! Try Lovely Day." {
			t.Errorf("got %q, %v", got, err)
		}
		if len(gen.history) != 6 {
			t.Errorf("history passed = %d turns, want 6", len(gen.history))
		}
	})

	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			name: "acknowledge",
			req:  Request{Mode: ModeAcknowledge},
			want: "I'm looking for some music recommendations for you...",
		},
		{
			name: "final",
			req:  Request{Mode: ModeFinal, Mood: music.MoodAnalysis{PrimaryMood: "sad"}, Recommendations: recs},
			want: `I think you might enjoy "Lovely Day" by Bill Withers based on your current mood.`,
		},
		{
			name: "engage",
			req:  Request{Mode: ModeEngage, History: history(1)},
			want: engageFirst,
		},
	}
	for _, tt := range tests {
		t.Run("fallback "+tt.name, func(t *testing.T) {
			gen := &scriptedChat{err: errors.New("503")}
			got, err := NewGenerativeComposer(gen).Compose(ctx, tt.req)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("empty reply falls back", func(t *testing.T) {
		got, _ := NewGenerativeComposer(&scriptedChat{reply: "   "}).Compose(ctx, Request{Mode: ModeAcknowledge})
		if got != acknowledgeErrorText {
			t.Errorf("got %q", got)
		}
	})

	t.Run("cancelled context is an error", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := NewGenerativeComposer(&scriptedChat{err: context.Canceled}).Compose(cctx, Request{Mode: ModeFinal, Recommendations: recs})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestPrompt(t *testing.T) {
	t.Run("engage wording", func(t *testing.T) {
		if p := Prompt(Request{Mode: ModeEngage, History: history(1)}); !strings.Contains(p, "your first interaction") {
			t.Errorf("prompt = %q", p)
		}
		if p := Prompt(Request{Mode: ModeEngage, History: history(3)}); !strings.Contains(p, "an early interaction") {
			t.Errorf("prompt = %q", p)
		}
	})

	t.Run("final lists songs and acknowledgement", func(t *testing.T) {
		p := Prompt(Request{
			Mode:            ModeFinal,
			Acknowledgement: "Finding tunes!",
			Mood:            music.MoodAnalysis{PrimaryMood: "happy", Confidence: 0.7},
			Recommendations: recs,
		})
		for _, want := range []string{
			"detected as: happy (confidence: 0.7)",
			`1. "Lovely Day" by Bill Withers`,
			`2. "September" by Earth, Wind & Fire`,
			`You previously responded with: "Finding tunes!"`,
		} {
			if !strings.Contains(p, want) {
				t.Errorf("prompt missing %q:\n%s", want, p)
			}
		}
	})

	t.Run("no song names outside final", func(t *testing.T) {
		for _, mode := range []Mode{ModeEngage, ModeAcknowledge} {
			p := Prompt(Request{Mode: mode, Recommendations: recs})
			if strings.Contains(p, "Lovely Day") {
				t.Errorf("%s prompt mentions a song", mode)
			}
		}
	})
}

func TestModeString(t *testing.T) {
	if ModeFinal.String() != "final" || Mode(9).String() != "mode(9)" {
		t.Error("unexpected Mode strings")
	}
}
