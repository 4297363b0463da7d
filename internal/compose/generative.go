package compose

import (
	"context"
	"fmt"
	"strings"

	"github.com/justestif/moodtunes/internal/llm"
	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/metrics"
)

// GenerativeComposer writes replies with a generative backend and falls
// back to fixed texts when the backend fails.
type GenerativeComposer struct {
	gen llm.Generator
}

// NewGenerativeComposer wraps gen.
func NewGenerativeComposer(gen llm.Generator) *GenerativeComposer {
	return &GenerativeComposer{gen: gen}
}

// Compose implements Composer. It only returns an error when ctx is done.
func (c *GenerativeComposer) Compose(ctx context.Context, req Request) (string, error) {
	text, err := c.gen.Chat(ctx, Prompt(req), req.History)
	if err == nil {
		if text = strings.TrimSpace(text); text != "" {
			return text, nil
		}
		err = llm.ErrEmptyResponse
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	metrics.Fallbacks.WithLabelValues("composer").Inc()
	logging.Ctx(ctx).Warn().Err(err).Str("mode", req.Mode.String()).Msg("reply generation failed, using template")
	return errorTemplate(req), nil
}

// Prompt renders the system prompt for req.
func Prompt(req Request) string {
	switch req.Mode {
	case ModeAcknowledge:
		return acknowledgePrompt
	case ModeFinal:
		return finalPrompt(req)
	default:
		return engagePrompt(req)
	}
}

const acknowledgePrompt = `You are a friendly music recommendation assistant. The user has just sent you this message.
Respond in a conversational way, acknowledging their message and indicating that you're
finding music recommendations for them. Keep your response friendly and concise (1-2 sentences).
Don't recommend any specific songs yet - just acknowledge their message and indicate you're finding music.`

func engagePrompt(req Request) string {
	interaction := "an early interaction"
	if isFirstInteraction(req.History) {
		interaction = "your first interaction"
	}

	return fmt.Sprintf(`You are a friendly music recommendation assistant having a conversation with a user.
This is %s with them.

Your goal is to engage them in a brief conversation to better understand their mood and music preferences.
Ask them a question about how they're feeling, what kind of day they're having, or what music they typically enjoy.
Keep your response conversational, friendly, and concise (2-3 sentences).
Don't make any specific music recommendations yet.`, interaction)
}

func finalPrompt(req Request) string {
	var songs strings.Builder
	for i, r := range req.Recommendations {
		fmt.Fprintf(&songs, "%d. \"%s\" by %s\n", i+1, r.Title, r.Artist)
	}

	return fmt.Sprintf(`You are a friendly music recommendation assistant.
The user's current mood has been detected as: %s (confidence: %g).
Based on this mood, you have the following song recommendations:
%s
You previously responded with: %q

Now, provide a more complete response that:
1. Builds on your initial response
2. Mentions their detected mood in a natural way
3. Recommends the first song in the list as your top pick
4. Keeps your response friendly and concise (2-3 sentences)
5. Doesn't list all songs, just mentions the top recommendation`,
		moodName(req.Mood), req.Mood.Confidence, songs.String(), req.Acknowledgement)
}
