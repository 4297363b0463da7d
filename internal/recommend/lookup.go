package recommend

import (
	"context"
	"sync"

	"github.com/justestif/moodtunes/internal/metrics"
	"github.com/justestif/moodtunes/internal/music"
)

// DefaultConcurrency bounds concurrent video lookups.
const DefaultConcurrency = 5

// SongFinder resolves a title and artist to a playable video.
type SongFinder interface {
	SearchSpecificSong(ctx context.Context, title, artist string) (music.Recommendation, error)
}

// lookup is shared by sources that pick songs from a track listing and
// then resolve each one to a video.
type lookup struct {
	name        string // metrics label
	songs       SongFinder
	fallback    Source
	maxResults  int
	concurrency int
}

// CatalogOption configures a CatalogSource or a TagSource.
type CatalogOption func(*lookup)

// WithConcurrency sets the number of concurrent video lookups.
func WithConcurrency(n int) CatalogOption {
	return func(l *lookup) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithCatalogMaxResults sets the number of listed tracks considered.
func WithCatalogMaxResults(n int) CatalogOption {
	return func(l *lookup) {
		if n > 0 {
			l.maxResults = n
		}
	}
}

func newLookup(name string, songs SongFinder, fallback Source, opts []CatalogOption) lookup {
	l := lookup{
		name:        name,
		songs:       songs,
		fallback:    fallback,
		maxResults:  DefaultMaxResults,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

func (l *lookup) fall(ctx context.Context, mood music.MoodAnalysis, cause error) ([]music.Recommendation, error) {
	if l.fallback == nil {
		return nil, cause
	}
	metrics.Fallbacks.WithLabelValues(l.name).Inc()
	return l.fallback.Recommend(ctx, mood)
}

// resolve looks up a video for each candidate concurrently. Order follows
// candidates; candidates without a video and repeated videos are dropped.
func (l *lookup) resolve(ctx context.Context, candidates []music.Recommendation) []music.Recommendation {
	if len(candidates) == 0 {
		return nil
	}

	type workItem struct {
		index int
		song  music.Recommendation
	}
	workCh := make(chan workItem, len(candidates))
	for i, c := range candidates {
		workCh <- workItem{index: i, song: c}
	}
	close(workCh)

	found := make([]*music.Recommendation, len(candidates))

	var wg sync.WaitGroup
	for range min(l.concurrency, len(candidates)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for work := range workCh {
				if ctx.Err() != nil {
					continue
				}

				video, err := l.songs.SearchSpecificSong(ctx, work.song.Title, work.song.Artist)
				if err != nil {
					continue
				}
				rec := work.song
				rec.YouTubeID = video.YouTubeID
				found[work.index] = &rec
			}
		}()
	}
	wg.Wait()

	recs := make([]music.Recommendation, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, r := range found {
		if r == nil || seen[r.YouTubeID] {
			continue
		}
		seen[r.YouTubeID] = true
		recs = append(recs, *r)
	}
	return recs
}
