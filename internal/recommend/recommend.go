// Package recommend turns a mood analysis into an ordered list of songs.
package recommend

import (
	"context"
	"errors"
	"strings"

	"github.com/justestif/moodtunes/internal/music"
)

// DefaultMaxResults caps the number of recommendations per turn.
const DefaultMaxResults = 5

// ErrNoRecommendations is returned when a source finds nothing to offer.
var ErrNoRecommendations = errors.New("no recommendations found")

// Source produces recommendations for a mood.
type Source interface {
	Recommend(ctx context.Context, mood music.MoodAnalysis) ([]music.Recommendation, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, mood music.MoodAnalysis) ([]music.Recommendation, error)

// Recommend implements Source.
func (f SourceFunc) Recommend(ctx context.Context, mood music.MoodAnalysis) ([]music.Recommendation, error) {
	return f(ctx, mood)
}

// BuildQuery composes a video search query from a mood analysis. Explicit
// user keywords come first, then up to two genres, the era, up to two
// mood keywords and the primary mood. Repeated parts are dropped.
func BuildQuery(mood music.MoodAnalysis) string {
	var parts []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[strings.ToLower(s)] {
			return
		}
		seen[strings.ToLower(s)] = true
		parts = append(parts, s)
	}

	for _, kw := range music.SplitList(mood.ExtractedKeywords) {
		add(kw)
	}
	for _, g := range firstN(mood.Genres(), 2) {
		add(g)
	}
	add(mood.Era)
	for _, kw := range firstN(music.SplitList(mood.MoodKeywords), 2) {
		add(kw)
	}
	add(mood.PrimaryMood)
	add("music")

	return strings.Join(parts, " ")
}

// tag stamps each recommendation with the mood and leading genre.
func tag(recs []music.Recommendation, mood music.MoodAnalysis) []music.Recommendation {
	genre := ""
	if genres := mood.Genres(); len(genres) > 0 {
		genre = genres[0]
	}

	out := make([]music.Recommendation, len(recs))
	for i, r := range recs {
		r.Mood = mood.PrimaryMood
		if r.Genre == "" {
			r.Genre = genre
		}
		out[i] = r
	}
	return out
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
