package mood

import (
	"context"
	"fmt"
	"strings"

	"github.com/justestif/moodtunes/internal/llm"
	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/metrics"
	"github.com/justestif/moodtunes/internal/music"
)

// scores is the fixed six-mood vocabulary of the structured payload.
type scores struct {
	Happy     float64 `json:"happy"`
	Sad       float64 `json:"sad"`
	Energetic float64 `json:"energetic"`
	Relaxed   float64 `json:"relaxed"`
	Angry     float64 `json:"angry"`
	Neutral   float64 `json:"neutral"`
}

// analysisPayload is the JSON object the model is asked to return.
type analysisPayload struct {
	PrimaryMood       string  `json:"primaryMood"`
	MoodScores        *scores `json:"moodScores"`
	Confidence        float64 `json:"confidence"`
	MoodKeywords      string  `json:"moodKeywords"`
	SuggestedGenres   string  `json:"suggestedGenres"`
	ExtractedKeywords string  `json:"extractedKeywords"`
	Era               string  `json:"era"`
	Reasoning         string  `json:"reasoning"`
}

var analysisSchema = llm.SchemaFor[analysisPayload]("MoodAnalysis", "Mood and music preference analysis of a chat message")

// analysisFormat describes each field to the model.
var analysisFormat = map[string]any{
	"primaryMood": "string (one of: happy, sad, energetic, relaxed, angry, neutral, or a more specific mood if detected)",
	"moodScores": map[string]string{
		"happy":     "number (0-1)",
		"sad":       "number (0-1)",
		"energetic": "number (0-1)",
		"relaxed":   "number (0-1)",
		"angry":     "number (0-1)",
		"neutral":   "number (0-1)",
	},
	"confidence":        "number (0-1, confidence in the overall analysis)",
	"moodKeywords":      "string (comma-separated keywords describing the mood, e.g., 'upbeat', 'chill', 'melancholy')",
	"suggestedGenres":   "string (comma-separated music genres that fit the mood and context, e.g., 'Pop', 'Electronic', 'Classical')",
	"extractedKeywords": "string (comma-separated music-relevant phrases taken from the user's message, e.g., 'workout playlist', 'music from the 80s')",
	"era":               "string (music era if mentioned or implied, e.g., '80s', '90s', 'current hits')",
	"reasoning":         "string (brief explanation for the analysis)",
}

const analysisTask = `Analyze the user's mood and music preferences based on their messages in this conversation.
Extract the primary mood, and suggest music genres, keywords, or a specific era that match their request and mood.
If the user mentions a specific artist, genre, song title, or era, extract that information explicitly.`

// GenerativeAnalyzer asks a generative backend for a structured analysis
// and falls back to keyword scoring on any failure.
type GenerativeAnalyzer struct {
	gen     llm.Generator
	retries int
}

// NewGenerativeAnalyzer wraps gen.
func NewGenerativeAnalyzer(gen llm.Generator) *GenerativeAnalyzer {
	return &GenerativeAnalyzer{gen: gen, retries: llm.DefaultStructuredRetries}
}

// Detect implements Analyzer.
func (a *GenerativeAnalyzer) Detect(ctx context.Context, message string, prior []music.Message) music.MoodAnalysis {
	conversation := Transcript(prior)

	payload, err := llm.GenerateStructured[analysisPayload](ctx, a.gen, llm.StructuredRequest{
		Task: fmt.Sprintf("%s\n\nConversation History:\n%s\nCurrent Message:\n%s\n\nProvide your analysis in the following JSON format:",
			analysisTask, conversation, message),
		Context: map[string]string{
			"conversation":   conversation,
			"currentMessage": message,
		},
		Format:  analysisFormat,
		Schema:  analysisSchema,
		Retries: a.retries,
	})
	if err != nil {
		metrics.Fallbacks.WithLabelValues("mood").Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("generative mood analysis failed, using keyword fallback")
		return ScoreKeywords(message)
	}
	return payload.toAnalysis()
}

// Transcript renders turns as "role: content" lines.
func Transcript(turns []music.Message) string {
	lines := make([]string, len(turns))
	for i, m := range turns {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	return strings.Join(lines, "\n")
}

// toAnalysis applies defaults for missing fields.
func (p analysisPayload) toAnalysis() music.MoodAnalysis {
	out := music.MoodAnalysis{
		PrimaryMood:       strings.ToLower(strings.TrimSpace(p.PrimaryMood)),
		MoodScores:        map[string]float64{},
		Confidence:        p.Confidence,
		MoodKeywords:      p.MoodKeywords,
		SuggestedGenres:   p.SuggestedGenres,
		ExtractedKeywords: p.ExtractedKeywords,
		Era:               p.Era,
		Reasoning:         p.Reasoning,
	}
	if out.PrimaryMood == "" {
		out.PrimaryMood = music.MoodNeutral
	}
	if out.Confidence <= 0 || out.Confidence > 1 {
		out.Confidence = 0.5
	}
	if s := p.MoodScores; s != nil {
		out.MoodScores = map[string]float64{
			music.MoodHappy:     clamp(s.Happy),
			music.MoodSad:       clamp(s.Sad),
			music.MoodEnergetic: clamp(s.Energetic),
			music.MoodRelaxed:   clamp(s.Relaxed),
			music.MoodAngry:     clamp(s.Angry),
			music.MoodNeutral:   clamp(s.Neutral),
		}
	}
	return out
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}
