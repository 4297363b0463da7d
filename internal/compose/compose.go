// Package compose writes the assistant's reply text for each conversation
// step, from fixed templates or a generative backend.
package compose

import (
	"context"
	"fmt"

	"github.com/justestif/moodtunes/internal/music"
)

// Mode selects what kind of reply to write.
type Mode int

const (
	// ModeEngage asks a question to learn about the user's mood and taste.
	ModeEngage Mode = iota
	// ModeAcknowledge says recommendations are being prepared.
	ModeAcknowledge
	// ModeFinal presents the top recommendation.
	ModeFinal
)

func (m Mode) String() string {
	switch m {
	case ModeEngage:
		return "engage"
	case ModeAcknowledge:
		return "acknowledge"
	case ModeFinal:
		return "final"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Request is the input to a Compose call. Mood, Recommendations and
// Acknowledgement are only read in ModeFinal.
type Request struct {
	Mode            Mode
	Acknowledgement string
	Mood            music.MoodAnalysis
	Recommendations []music.Recommendation
	History         []music.Message
}

// Composer produces reply text.
type Composer interface {
	Compose(ctx context.Context, req Request) (string, error)
}

// Template texts.
const (
	engageFirst = "Hi there! I'd love to help you find some music. How are you feeling today, and what kind of day are you having?"
	engageEarly = "Thanks for sharing! What kind of music do you usually enjoy, or what vibe are you looking for right now?"

	acknowledgeText      = "I'm analyzing your message to find the perfect music for you..."
	acknowledgeErrorText = "I'm looking for some music recommendations for you..."

	finalFormat      = "Based on our conversation, I sense you're feeling %s. Here are some songs that might match your mood. My top recommendation is \"%s\" by %s."
	finalErrorFormat = "I think you might enjoy \"%s\" by %s based on your current mood."
	moodOnlyFormat   = "Based on our conversation, I sense you're feeling %s."
)

// isFirstInteraction reports whether history holds at most the user's
// opening message.
func isFirstInteraction(history []music.Message) bool {
	return len(history) <= 1
}

func moodName(m music.MoodAnalysis) string {
	if m.PrimaryMood == "" {
		return music.MoodNeutral
	}
	return m.PrimaryMood
}

func engageTemplate(history []music.Message) string {
	if isFirstInteraction(history) {
		return engageFirst
	}
	return engageEarly
}

// finalTemplate renders the final reply for the first recommendation, or
// a mood-only sentence when there are none. failed selects the shorter
// text used after a backend failure.
func finalTemplate(req Request, failed bool) string {
	if len(req.Recommendations) == 0 {
		return fmt.Sprintf(moodOnlyFormat, moodName(req.Mood))
	}
	top := req.Recommendations[0]
	if failed {
		return fmt.Sprintf(finalErrorFormat, top.Title, top.Artist)
	}
	return fmt.Sprintf(finalFormat, moodName(req.Mood), top.Title, top.Artist)
}
