package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/music"
)

// MaxRelaxations bounds how many broadened queries a failed search retries.
const MaxRelaxations = 2

// relaxKeepWords is how many words a relaxed query keeps.
const relaxKeepWords = 5

var (
	officialWord = regexp.MustCompile(`(?i)official`)
	explicitWord = regexp.MustCompile(`(?i)explicit`)
)

// SearchOptions tunes a search. The zero value searches with API defaults.
type SearchOptions struct {
	// Order is one of date, rating, relevance, title, videoCount, viewCount.
	Order string
	// PublishedAfter is an RFC 3339 timestamp.
	PublishedAfter string
	// NoRelax disables query relaxation on failure.
	NoRelax bool
}

// SearchVideos searches music videos matching query. On failure the query
// is relaxed with RelaxQuery up to MaxRelaxations times, dropping Order
// and PublishedAfter; if every attempt fails the first error is returned.
func (c *Client) SearchVideos(ctx context.Context, query string, maxResults int, opts SearchOptions) ([]music.Recommendation, error) {
	results, err := c.search(ctx, query, maxResults, opts)
	if err == nil || opts.NoRelax {
		return results, err
	}
	firstErr := err

	current := query
	for attempt := 1; attempt <= MaxRelaxations; attempt++ {
		if ctx.Err() != nil {
			return nil, firstErr
		}

		relaxed := RelaxQuery(current)
		if strings.TrimSpace(relaxed) == strings.TrimSpace(current) {
			logging.Ctx(ctx).Warn().Str("query", current).Msg("relaxed query unchanged, not retrying")
			break
		}

		logging.Ctx(ctx).Warn().Err(err).
			Str("query", relaxed).
			Int("retries_left", MaxRelaxations-attempt).
			Msg("retrying YouTube search with relaxed query")

		current = relaxed
		results, err = c.search(ctx, current, maxResults, SearchOptions{})
		if err == nil {
			return results, nil
		}
	}
	return nil, firstErr
}

// RelaxQuery broadens a query: the first "official" and the first
// "explicit" (any case) are removed, then only the first five
// space-separated words are kept.
func RelaxQuery(query string) string {
	q := removeFirst(officialWord, query)
	q = removeFirst(explicitWord, q)

	words := strings.Split(q, " ")
	if len(words) > relaxKeepWords {
		words = words[:relaxKeepWords]
	}
	return strings.Join(words, " ")
}

func removeFirst(re *regexp.Regexp, s string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}

// SearchSpecificSong looks for one video of title by artist, trying
// progressively looser query variations. It returns ErrNoResults when no
// variation finds anything.
func (c *Client) SearchSpecificSong(ctx context.Context, title, artist string) (music.Recommendation, error) {
	log := logging.Ctx(ctx)

	for _, q := range songQueries(title, artist) {
		results, err := c.SearchVideos(ctx, q, 1, SearchOptions{Order: "relevance", NoRelax: true})
		if err == nil && len(results) > 0 {
			return results[0], nil
		}
		if ctx.Err() != nil {
			return music.Recommendation{}, ctx.Err()
		}
		log.Debug().Err(err).Str("query", q).Msg("song search variation failed")
	}

	log.Warn().Str("title", title).Str("artist", artist).Msg("specific song not found")
	return music.Recommendation{}, ErrNoResults
}

// songQueries lists the search variations for a specific song, most
// precise first. Empty variations are dropped.
func songQueries(title, artist string) []string {
	variations := []string{
		title + " " + artist + " official video",
		title + " official video",
		title + " " + artist + " music video",
		title + " music video",
		title + " " + artist,
		title,
		title + " full song",
		title + " audio",
	}

	out := variations[:0]
	for _, v := range variations {
		if v = strings.Join(strings.Fields(v), " "); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// search performs a single /search request without relaxation.
func (c *Client) search(ctx context.Context, query string, maxResults int, opts SearchOptions) ([]music.Recommendation, error) {
	params := url.Values{
		"part":            {"snippet"},
		"q":               {query},
		"maxResults":      {strconv.Itoa(maxResults)},
		"type":            {"video"},
		"videoCategoryId": {musicCategory},
		"safeSearch":      {"moderate"},
	}
	if opts.Order != "" {
		params.Set("order", opts.Order)
	}
	if opts.PublishedAfter != "" {
		params.Set("publishedAfter", opts.PublishedAfter)
	}

	results, err := c.searchItems(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("searching videos for %q: %w", query, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("searching videos for %q: %w", query, ErrNoResults)
	}
	return results, nil
}

// searchItems runs /search and keeps the items carrying a video ID, a
// title and a channel title. The channel title stands in for the artist.
func (c *Client) searchItems(ctx context.Context, params url.Values) ([]music.Recommendation, error) {
	body, err := c.get(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}
	if resp.Items == nil {
		return nil, ErrInvalidResponse
	}

	results := make([]music.Recommendation, 0, len(*resp.Items))
	for _, item := range *resp.Items {
		if item.ID.VideoID == "" || item.Snippet == nil || item.Snippet.Title == "" || item.Snippet.ChannelTitle == "" {
			continue
		}
		results = append(results, music.Recommendation{
			Title:     item.Snippet.Title,
			Artist:    item.Snippet.ChannelTitle,
			YouTubeID: item.ID.VideoID,
		})
	}
	return results, nil
}

// IsNotFound reports whether err means a search came back empty.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoResults)
}
