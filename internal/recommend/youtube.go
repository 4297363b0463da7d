package recommend

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/music"
	"github.com/justestif/moodtunes/internal/youtube"
)

// VideoSearcher abstracts the YouTube client for testing.
type VideoSearcher interface {
	SearchVideos(ctx context.Context, query string, maxResults int, opts youtube.SearchOptions) ([]music.Recommendation, error)
}

// YouTubeSource recommends the top video search results for the mood
// query. Results are cached per query.
type YouTubeSource struct {
	search     VideoSearcher
	maxResults int
	cache      *searchCache
}

// YouTubeOption configures a YouTubeSource.
type YouTubeOption func(*YouTubeSource)

// WithMaxResults sets the number of videos requested per search.
func WithMaxResults(n int) YouTubeOption {
	return func(s *YouTubeSource) {
		if n > 0 {
			s.maxResults = n
		}
	}
}

// WithCacheTTL sets the search cache TTL. Zero or less disables caching.
func WithCacheTTL(ttl time.Duration) YouTubeOption {
	return func(s *YouTubeSource) {
		if ttl <= 0 {
			s.cache = nil
			return
		}
		s.cache = newSearchCache(ttl)
	}
}

// NewYouTubeSource creates a source backed by search.
func NewYouTubeSource(search VideoSearcher, opts ...YouTubeOption) *YouTubeSource {
	s := &YouTubeSource{
		search:     search,
		maxResults: DefaultMaxResults,
		cache:      newSearchCache(DefaultCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend implements Source.
func (s *YouTubeSource) Recommend(ctx context.Context, mood music.MoodAnalysis) ([]music.Recommendation, error) {
	query := BuildQuery(mood)

	if s.cache != nil {
		if recs, ok := s.cache.get(query); ok {
			logging.Ctx(ctx).Debug().Str("query", query).Msg("search cache hit")
			return tag(recs, mood), nil
		}
	}

	recs, err := s.search.SearchVideos(ctx, query, s.maxResults, youtube.SearchOptions{})
	if err != nil {
		if errors.Is(err, youtube.ErrNoResults) {
			return nil, fmt.Errorf("%w: %w", ErrNoRecommendations, err)
		}
		return nil, fmt.Errorf("searching videos: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNoRecommendations
	}

	if s.cache != nil {
		s.cache.put(query, slices.Clone(recs))
	}
	return tag(recs, mood), nil
}
