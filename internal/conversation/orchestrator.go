// Package conversation runs a chat turn: it decides the conversation
// stage, detects mood, fetches recommendations and composes the reply.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/justestif/moodtunes/internal/compose"
	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/metrics"
	"github.com/justestif/moodtunes/internal/mood"
	"github.com/justestif/moodtunes/internal/music"
	"github.com/justestif/moodtunes/internal/recommend"
)

// ErrOrchestration wraps every failure of Process.
var ErrOrchestration = errors.New("conversation failed")

// ChatResponse is the outcome of one turn.
type ChatResponse struct {
	Message         music.Message          `json:"message"`
	Mood            music.MoodAnalysis     `json:"mood"`
	Recommendations []music.Recommendation `json:"recommendations"`
	History         []music.Message        `json:"history"`
}

// Orchestrator coordinates the mood analyzer, the recommendation source
// and the composer for each chat turn. It holds no per-conversation
// state and is safe for concurrent use.
type Orchestrator struct {
	analyzer mood.Analyzer
	source   recommend.Source
	composer compose.Composer
}

// New creates an Orchestrator.
func New(analyzer mood.Analyzer, source recommend.Source, composer compose.Composer) *Orchestrator {
	return &Orchestrator{
		analyzer: analyzer,
		source:   source,
		composer: composer,
	}
}

// Process handles message given the prior history. The returned history
// is history plus the user message and the assistant reply.
func (o *Orchestrator) Process(ctx context.Context, message string, history []music.Message) (*ChatResponse, error) {
	working := slices.Clip(append(slices.Clone(history), music.Message{Role: music.RoleUser, Content: message}))
	stage := ClassifyStage(len(working))
	metrics.ChatStages.WithLabelValues(stage.String()).Inc()

	logging.Ctx(ctx).Debug().
		Str("stage", stage.String()).
		Int("history", len(working)).
		Msg("processing chat turn")

	var (
		resp *ChatResponse
		err  error
	)
	if stage == StageRecommending {
		resp, err = o.recommending(ctx, message, working)
	} else {
		resp, err = o.gathering(ctx, message, working)
	}
	if err != nil {
		return nil, fmt.Errorf("%w in %s stage: %w", ErrOrchestration, stage, err)
	}
	return resp, nil
}

// gathering asks a follow-up question while a preliminary mood is
// detected. The recommendations for that mood are returned but the reply
// does not mention them.
func (o *Orchestrator) gathering(ctx context.Context, message string, working []music.Message) (*ChatResponse, error) {
	prior := slices.Clip(working[:len(working)-1])

	var (
		g     errgroup.Group
		reply string
		found music.MoodAnalysis
	)
	g.Go(func() error {
		var err error
		reply, err = o.composer.Compose(ctx, compose.Request{Mode: compose.ModeEngage, History: working})
		if err != nil {
			return fmt.Errorf("composing engage reply: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		found = o.analyzer.Detect(ctx, message, prior)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recs, err := o.source.Recommend(ctx, found)
	if err != nil {
		return nil, fmt.Errorf("fetching preliminary recommendations: %w", err)
	}
	return respond(working, reply, found, recs), nil
}

// recommending acknowledges the request while mood is detected, fetches
// recommendations for it and composes the final reply.
func (o *Orchestrator) recommending(ctx context.Context, message string, working []music.Message) (*ChatResponse, error) {
	prior := slices.Clip(working[:len(working)-1])

	var (
		ack     errgroup.Group
		ackText string
	)
	ack.Go(func() error {
		var err error
		ackText, err = o.composer.Compose(ctx, compose.Request{Mode: compose.ModeAcknowledge, History: working})
		if err != nil {
			return fmt.Errorf("composing acknowledgement: %w", err)
		}
		return nil
	})

	found := o.analyzer.Detect(ctx, message, prior)
	recs, recErr := o.source.Recommend(ctx, found)

	// Both branches are always awaited.
	if err := ack.Wait(); err != nil {
		return nil, err
	}
	if recErr != nil {
		return nil, fmt.Errorf("fetching recommendations: %w", recErr)
	}

	reply, err := o.composer.Compose(ctx, compose.Request{
		Mode:            compose.ModeFinal,
		Acknowledgement: ackText,
		Mood:            found,
		Recommendations: recs,
		History:         working,
	})
	if err != nil {
		return nil, fmt.Errorf("composing final reply: %w", err)
	}
	return respond(working, reply, found, recs), nil
}

func respond(working []music.Message, reply string, found music.MoodAnalysis, recs []music.Recommendation) *ChatResponse {
	msg := music.Message{Role: music.RoleAssistant, Content: reply}
	return &ChatResponse{
		Message:         msg,
		Mood:            found,
		Recommendations: recs,
		History:         append(working, msg),
	}
}
