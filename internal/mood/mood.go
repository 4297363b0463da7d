// Package mood classifies the emotional tone of a chat message.
package mood

import (
	"context"
	"strings"

	"github.com/justestif/moodtunes/internal/music"
)

// Analyzer detects mood and music preferences from a message and the
// turns that preceded it. Implementations never fail; at worst they
// return a low-confidence neutral analysis.
type Analyzer interface {
	Detect(ctx context.Context, message string, prior []music.Message) music.MoodAnalysis
}

// keywords lists the trigger words per mood in scoring order.
var keywords = []struct {
	mood  string
	words []string
}{
	{music.MoodHappy, []string{"happy", "joy", "excited", "great", "wonderful"}},
	{music.MoodSad, []string{"sad", "depressed", "down", "unhappy", "miserable"}},
	{music.MoodEnergetic, []string{"energetic", "pumped", "workout", "exercise", "active"}},
	{music.MoodRelaxed, []string{"relaxed", "calm", "peaceful", "chill", "quiet"}},
	{music.MoodAngry, []string{"angry", "frustrated", "annoyed", "mad"}},
}

// KeywordAnalyzer scores moods by counting keyword occurrences.
type KeywordAnalyzer struct{}

// NewKeywordAnalyzer returns the keyword strategy.
func NewKeywordAnalyzer() KeywordAnalyzer {
	return KeywordAnalyzer{}
}

// Detect implements Analyzer. Only message is inspected.
//
// Each keyword contained in the lowercased message adds one to its mood.
// The single highest-scoring mood wins; a shared top score or no hits at
// all yields neutral. Confidence is 0.5 + 0.1 per hit of the top score.
func (KeywordAnalyzer) Detect(_ context.Context, message string, _ []music.Message) music.MoodAnalysis {
	return ScoreKeywords(message)
}

// ScoreKeywords is the pure keyword classification used by
// KeywordAnalyzer and as the generative fallback.
func ScoreKeywords(message string) music.MoodAnalysis {
	lower := strings.ToLower(message)
	scores := make(map[string]float64, len(keywords))

	best, bestMood, tied := 0, music.MoodNeutral, false
	for _, k := range keywords {
		hits := 0
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				hits++
			}
		}
		scores[k.mood] = float64(hits)

		switch {
		case hits > best:
			best, bestMood, tied = hits, k.mood, false
		case hits == best && hits > 0:
			tied = true
		}
	}

	result := music.MoodAnalysis{
		PrimaryMood: bestMood,
		MoodScores:  scores,
		Confidence:  0.5,
	}
	if tied || best == 0 {
		result.PrimaryMood = music.MoodNeutral
	}
	if best > 0 {
		result.Confidence = 0.5 + float64(best)*0.1
	}
	return result
}
