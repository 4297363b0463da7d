package spotify

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/zmb3/spotify/v2"
)

// MaxSearchLimit is the largest page the search endpoint returns.
const MaxSearchLimit = 50

// SearchTracks runs a catalog track search. Popular tracks come first as
// ranked by Spotify.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	limit = min(max(limit, 1), MaxSearchLimit)

	opts := []spotify.RequestOption{spotify.Limit(limit)}
	if c.market != "" {
		opts = append(opts, spotify.Market(c.market))
	}

	result, err := c.api.Search(ctx, query, spotify.SearchTypeTrack, opts...)
	if err != nil {
		return nil, fmt.Errorf("searching tracks for %q: %w", query, err)
	}
	if result.Tracks == nil {
		return []Track{}, nil
	}

	tracks := make([]Track, 0, len(result.Tracks.Tracks))
	for _, t := range result.Tracks.Tracks {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks, nil
}

// convertTrack converts a Spotify FullTrack to Track.
func convertTrack(t spotify.FullTrack) Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return Track{
		ID:         t.ID.String(),
		Name:       t.Name,
		Artist:     strings.Join(artists, ", "),
		Album:      t.Album.Name,
		Popularity: int(t.Popularity),
	}
}

var decadePattern = regexp.MustCompile(`^(?:(\d{2})?(\d)0)'?s$`)

// EraYears maps an era such as "80s", "1990s" or "2010" to a Spotify year
// filter value. It returns "" when the era is not recognized.
func EraYears(era string) string {
	era = strings.ToLower(strings.TrimSpace(era))
	if era == "" {
		return ""
	}

	if y, err := strconv.Atoi(era); err == nil && y >= 1900 && y <= 2100 {
		return era
	}

	m := decadePattern.FindStringSubmatch(era)
	if m == nil {
		return ""
	}
	century := m[1]
	if century == "" {
		if m[2] >= "3" {
			century = "19"
		} else {
			century = "20"
		}
	}
	start := century + m[2] + "0"
	return start + "-" + start[:3] + "9"
}

// Query builds a track search query from free text, a genre and an era.
func Query(text, genre, era string) string {
	var parts []string
	if text = strings.TrimSpace(text); text != "" {
		parts = append(parts, text)
	}
	if genre = strings.TrimSpace(genre); genre != "" {
		parts = append(parts, fmt.Sprintf("genre:%q", strings.ToLower(genre)))
	}
	if years := EraYears(era); years != "" {
		parts = append(parts, "year:"+years)
	}
	return strings.Join(parts, " ")
}
