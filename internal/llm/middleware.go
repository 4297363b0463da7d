package llm

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/justestif/moodtunes/internal/breaker"
	"github.com/justestif/moodtunes/internal/metrics"
	"github.com/justestif/moodtunes/internal/music"
)

// guarded wraps a Generator with a circuit breaker and latency metrics.
type guarded struct {
	next     Generator
	provider string
	cb       *gobreaker.CircuitBreaker[string]
}

// Guard decorates g with a circuit breaker named after provider and
// records call latency by outcome.
func Guard(g Generator, provider string) Generator {
	return &guarded{
		next:     g,
		provider: provider,
		cb:       breaker.New[string]("llm-" + provider),
	}
}

func (g *guarded) Chat(ctx context.Context, prompt string, history []music.Message) (string, error) {
	return g.call("chat", func() (string, error) {
		return g.next.Chat(ctx, prompt, history)
	})
}

func (g *guarded) Generate(ctx context.Context, prompt string, schema *Schema) (string, error) {
	return g.call("generate", func() (string, error) {
		return g.next.Generate(ctx, prompt, schema)
	})
}

func (g *guarded) call(kind string, fn func() (string, error)) (string, error) {
	start := time.Now()
	out, err := g.cb.Execute(fn)
	metrics.LLMDuration.WithLabelValues(g.provider, kind, metrics.Outcome(err)).Observe(time.Since(start).Seconds())
	return out, err
}
