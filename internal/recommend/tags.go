package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/justestif/moodtunes/internal/lastfm"
	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/music"
)

// TagCharts abstracts the Last.fm client for testing.
type TagCharts interface {
	TopTracks(ctx context.Context, tag string, limit int) ([]lastfm.Track, error)
}

// moodTags maps moods to Last.fm tags with well populated charts.
var moodTags = map[string]string{
	music.MoodHappy:     "happy",
	music.MoodSad:       "sad",
	music.MoodEnergetic: "energetic",
	music.MoodRelaxed:   "chillout",
	music.MoodAngry:     "angry",
	music.MoodNeutral:   "chill",
}

// MoodTag picks the chart tag for a mood: the leading genre when one was
// suggested, otherwise a tag for the primary mood.
func MoodTag(mood music.MoodAnalysis) string {
	if genres := mood.Genres(); len(genres) > 0 {
		return strings.ToLower(genres[0])
	}
	if t, ok := moodTags[mood.PrimaryMood]; ok {
		return t
	}
	return moodTags[music.MoodNeutral]
}

// TagSource picks songs from the Last.fm chart for the mood's tag and
// resolves each to a YouTube video. When nothing resolves it defers to
// fallback.
type TagSource struct {
	lookup
	charts TagCharts
}

// NewTagSource creates a tag-chart source. fallback may be nil.
func NewTagSource(charts TagCharts, songs SongFinder, fallback Source, opts ...CatalogOption) *TagSource {
	return &TagSource{
		lookup: newLookup("lastfm", songs, fallback, opts),
		charts: charts,
	}
}

// Recommend implements Source. Twice the result count is read from the
// chart so unresolved entries still leave a full list.
func (s *TagSource) Recommend(ctx context.Context, mood music.MoodAnalysis) ([]music.Recommendation, error) {
	log := logging.Ctx(ctx)
	chartTag := MoodTag(mood)

	tracks, err := s.charts.TopTracks(ctx, chartTag, 2*s.maxResults)
	if err != nil {
		log.Warn().Err(err).Str("tag", chartTag).Msg("tag chart lookup failed")
		return s.fall(ctx, mood, fmt.Errorf("reading tag chart: %w", err))
	}

	candidates := make([]music.Recommendation, len(tracks))
	for i, t := range tracks {
		candidates[i] = music.Recommendation{Title: t.Name, Artist: t.Artist}
	}

	recs := s.resolve(ctx, candidates)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if len(recs) == 0 {
		log.Warn().Str("tag", chartTag).Int("tracks", len(tracks)).Msg("no chart tracks resolved to videos")
		return s.fall(ctx, mood, ErrNoRecommendations)
	}
	if len(recs) > s.maxResults {
		recs = recs[:s.maxResults]
	}
	return tag(recs, mood), nil
}
