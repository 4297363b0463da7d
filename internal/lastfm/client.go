// Package lastfm reads Last.fm tag charts, used to pick songs for a mood
// tag such as "chillout" or "sad".
package lastfm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	baseURL   = "https://ws.audioscrobbler.com/2.0/"
	userAgent = "moodtunes/1.0"

	// MaxLimit is the largest chart page requested.
	MaxLimit = 50

	// DefaultCacheTTL is how long a tag chart is reused.
	DefaultCacheTTL = 6 * time.Hour
)

// Last.fm API error codes.
const (
	errCodeInvalidParams = 6
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrUnknownTag is returned when Last.fm does not know the tag.
	ErrUnknownTag = errors.New("unknown tag")
)

type cacheEntry struct {
	tracks  []Track
	expires time.Time
}

// Client is a Last.fm API client with caching and retry on rate limit.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	ttl        time.Duration
	delays     []time.Duration
	now        func() time.Time

	// key = "{tag}:{limit}"
	cache   map[string]cacheEntry
	cacheMu sync.RWMutex
}

// NewClient creates a new Last.fm API client.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		ttl:     DefaultCacheTTL,
		delays:  []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		now:     time.Now,
		cache:   make(map[string]cacheEntry),
	}
}

// TopTracks returns the most listened tracks for tag, best first. Results
// are cached per tag and limit. Returns an empty slice (not nil) when the
// chart is empty.
func (c *Client) TopTracks(ctx context.Context, tag string, limit int) ([]Track, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	limit = min(max(limit, 1), MaxLimit)
	cacheKey := fmt.Sprintf("%s:%d", tag, limit)

	c.cacheMu.RLock()
	if cached, ok := c.cache[cacheKey]; ok && c.now().Before(cached.expires) {
		c.cacheMu.RUnlock()
		return cached.tracks, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{
		"method":  {"tag.getTopTracks"},
		"tag":     {tag},
		"limit":   {strconv.Itoa(limit)},
		"format":  {"json"},
		"api_key": {c.apiKey},
	}

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetching top tracks for tag %q: %w", tag, err)
	}

	var resp topTracksResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing top tracks response: %w", err)
	}

	tracks := make([]Track, 0, len(resp.Tracks.Track))
	for i, t := range resp.Tracks.Track {
		if t.Name == "" || t.Artist.Name == "" {
			continue
		}
		rank, err := strconv.Atoi(t.Attr.Rank)
		if err != nil {
			rank = i + 1
		}
		tracks = append(tracks, Track{Name: t.Name, Artist: t.Artist.Name, Rank: rank})
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = cacheEntry{tracks: tracks, expires: c.now().Add(c.ttl)}
	c.cacheMu.Unlock()

	return tracks, nil
}

// doRequest performs an HTTP GET request with retry on rate limit, waiting
// on each of c.delays in turn.
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= len(c.delays); attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.delays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}
		return nil, err
	}

	return nil, lastErr
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// Last.fm reports most failures in the body, sometimes with a 200.
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		switch apiErr.Error {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		case errCodeInvalidParams:
			return nil, ErrUnknownTag
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Error, apiErr.Message)
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}
