// Package music defines the conversation and recommendation types shared
// across the mood, recommendation and conversation packages.
package music

import "strings"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// Mood names understood by the analyzers.
const (
	MoodHappy     = "happy"
	MoodSad       = "sad"
	MoodEnergetic = "energetic"
	MoodRelaxed   = "relaxed"
	MoodAngry     = "angry"
	MoodNeutral   = "neutral"
)

// Moods is the fixed mood vocabulary in scoring order.
var Moods = []string{MoodHappy, MoodSad, MoodEnergetic, MoodRelaxed, MoodAngry, MoodNeutral}

// MoodAnalysis is the structured classification of a user's message.
type MoodAnalysis struct {
	PrimaryMood       string             `json:"primaryMood"`
	MoodScores        map[string]float64 `json:"moodScores"`
	Confidence        float64            `json:"confidence"`
	MoodKeywords      string             `json:"moodKeywords"`
	SuggestedGenres   string             `json:"suggestedGenres"`
	ExtractedKeywords string             `json:"extractedKeywords"`
	Era               string             `json:"era"`
	Reasoning         string             `json:"reasoning,omitempty"`
}

// Neutral returns the low-confidence neutral analysis.
func Neutral() MoodAnalysis {
	return MoodAnalysis{
		PrimaryMood: MoodNeutral,
		MoodScores:  map[string]float64{},
		Confidence:  0.5,
	}
}

// Genres splits SuggestedGenres into trimmed, non-empty entries.
func (m MoodAnalysis) Genres() []string {
	return SplitList(m.SuggestedGenres)
}

// Vector returns the mood scores in Moods order. Missing moods are zero.
func (m MoodAnalysis) Vector() []float64 {
	v := make([]float64, len(Moods))
	for i, name := range Moods {
		v[i] = m.MoodScores[name]
	}
	return v
}

// Recommendation is a single candidate song. YouTubeID is its natural key.
type Recommendation struct {
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	YouTubeID string `json:"youtubeId" validate:"required"`
	Mood      string `json:"mood,omitempty"`
	Genre     string `json:"genre,omitempty"`
}

// SplitList splits a comma-separated list, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
