// Package youtube is a YouTube Data API v3 client for music video search.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/justestif/moodtunes/internal/breaker"
	"github.com/justestif/moodtunes/internal/metrics"
)

const (
	baseURL   = "https://www.googleapis.com/youtube/v3"
	userAgent = "moodtunes/1.0"

	// musicCategory is the YouTube video category for Music.
	musicCategory = "10"
)

// Sentinel errors.
var (
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("YouTube API key is missing")

	// ErrInvalidResponse is returned when a payload lacks the expected items.
	ErrInvalidResponse = errors.New("invalid YouTube API response")

	// ErrNoResults is returned when a search yields no usable videos.
	ErrNoResults = errors.New("no valid videos found")
)

// Client talks to the YouTube Data API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker[[]byte]

	// pause between video detail attempts
	retryDelay time.Duration
}

// NewClient creates a client authenticated with apiKey.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:    baseURL,
		cb:         breaker.New[[]byte]("youtube"),
		retryDelay: time.Second,
	}
}

// get issues GET {baseURL}{path}?params through the circuit breaker.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	params.Set("key", c.apiKey)

	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.doRequest(ctx, c.baseURL+endpoint+"?"+params.Encode())
	})
	metrics.YouTubeRequests.WithLabelValues(endpoint, metrics.Outcome(err)).Inc()
	return body, err
}

func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != nil {
			return nil, fmt.Errorf("API error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
