package recommend

import (
	"context"
	"fmt"

	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/music"
	"github.com/justestif/moodtunes/internal/spotify"
)

// TrackSearcher abstracts the Spotify catalog client for testing.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]spotify.Track, error)
}

// CatalogSource picks tracks from the Spotify catalog and resolves each to
// a YouTube video. When nothing resolves it defers to fallback.
type CatalogSource struct {
	lookup
	tracks TrackSearcher
}

// NewCatalogSource creates a catalog-backed source. fallback may be nil.
func NewCatalogSource(tracks TrackSearcher, songs SongFinder, fallback Source, opts ...CatalogOption) *CatalogSource {
	return &CatalogSource{
		lookup: newLookup("catalog", songs, fallback, opts),
		tracks: tracks,
	}
}

// CatalogQuery builds the Spotify search for a mood: the user's own
// keywords when present, otherwise the primary mood, filtered by the
// leading genre and the era.
func CatalogQuery(mood music.MoodAnalysis) string {
	text := mood.ExtractedKeywords
	if text == "" {
		text = mood.PrimaryMood
	}
	genre := ""
	if genres := mood.Genres(); len(genres) > 0 {
		genre = genres[0]
	}
	return spotify.Query(text, genre, mood.Era)
}

// Recommend implements Source.
func (s *CatalogSource) Recommend(ctx context.Context, mood music.MoodAnalysis) ([]music.Recommendation, error) {
	log := logging.Ctx(ctx)
	query := CatalogQuery(mood)

	tracks, err := s.tracks.SearchTracks(ctx, query, s.maxResults)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("catalog search failed")
		return s.fall(ctx, mood, fmt.Errorf("searching catalog: %w", err))
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
		log.Warn().Str("query", query).Int("tracks", len(tracks)).Msg("no catalog tracks resolved to videos")
		return s.fall(ctx, mood, ErrNoRecommendations)
	}
	return tag(recs, mood), nil
}
