package lastfm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// chartJSON renders a tag.getTopTracks body for the given "name|artist" pairs.
func chartJSON(entries ...[2]string) string {
	body := `{"tracks":{"track":[`
	for i, e := range entries {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"name":%q,"artist":{"name":%q},"@attr":{"rank":"%d"}}`, e[0], e[1], i+1)
	}
	return body + `]}}`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("test-api-key")
	c.httpClient = server.Client()
	c.baseURL = server.URL + "/"
	c.delays = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return c
}

func TestTopTracks(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantTracks []Track
		wantErr    error
	}{
		{
			name: "chart entries in rank order",
			body: chartJSON([2]string{"Teardrop", "Massive Attack"}, [2]string{"Angel", "Massive Attack"}),
			wantTracks: []Track{
				{Name: "Teardrop", Artist: "Massive Attack", Rank: 1},
				{Name: "Angel", Artist: "Massive Attack", Rank: 2},
			},
		},
		{
			name:       "entries without artist are skipped",
			body:       `{"tracks":{"track":[{"name":"Orphan","artist":{"name":""}},{"name":"Roads","artist":{"name":"Portishead"}}]}}`,
			wantTracks: []Track{{Name: "Roads", Artist: "Portishead", Rank: 2}},
		},
		{
			name:       "empty chart returns empty slice",
			body:       `{"tracks":{"track":[]}}`,
			wantTracks: []Track{},
		},
		{
			name:    "invalid API key",
			body:    `{"error":10,"message":"Invalid API key"}`,
			wantErr: ErrInvalidAPIKey,
		},
		{
			name:    "unknown tag",
			body:    `{"error":6,"message":"Tag not found"}`,
			wantErr: ErrUnknownTag,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("method") != "tag.getTopTracks" || q.Get("tag") != "trip-hop" || q.Get("api_key") != "test-api-key" {
					t.Errorf("unexpected query: %s", r.URL.RawQuery)
				}
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, tt.body)
			})

			tracks, err := client.TopTracks(context.Background(), " Trip-Hop ", 10)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TopTracks() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if tracks == nil {
				t.Fatal("TopTracks() returned nil slice")
			}
			if len(tracks) != len(tt.wantTracks) {
				t.Fatalf("TopTracks() got %d tracks, want %d", len(tracks), len(tt.wantTracks))
			}
			for i, tr := range tracks {
				if tr != tt.wantTracks[i] {
					t.Errorf("track[%d] = %+v, want %+v", i, tr, tt.wantTracks[i])
				}
			}
		})
	}
}

func TestTopTracks_LimitClamped(t *testing.T) {
	var limit atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		limit.Store(r.URL.Query().Get("limit"))
		fmt.Fprint(w, chartJSON())
	})

	if _, err := client.TopTracks(context.Background(), "sad", 500); err != nil {
		t.Fatalf("TopTracks() error = %v", err)
	}
	if got := limit.Load(); got != "50" {
		t.Errorf("limit = %v, want 50", got)
	}
}

func TestTopTracks_Caching(t *testing.T) {
	var requestCount atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		fmt.Fprint(w, chartJSON([2]string{"Happy", "Pharrell Williams"}))
	})

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return now }

	for range 2 {
		tracks, err := client.TopTracks(context.Background(), "happy", 5)
		if err != nil || len(tracks) != 1 {
			t.Fatalf("TopTracks() = %v, %v", tracks, err)
		}
	}
	if count := requestCount.Load(); count != 1 {
		t.Errorf("expected 1 request before expiry, got %d", count)
	}

	now = now.Add(DefaultCacheTTL + time.Minute)
	if _, err := client.TopTracks(context.Background(), "happy", 5); err != nil {
		t.Fatalf("TopTracks() error = %v", err)
	}
	if count := requestCount.Load(); count != 2 {
		t.Errorf("expected refetch after expiry, got %d requests", count)
	}
}

func TestTopTracks_RateLimitRetry(t *testing.T) {
	var requestCount atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Fail first 2 requests with rate limit, succeed on 3rd
		if requestCount.Add(1) < 3 {
			fmt.Fprint(w, `{"error":29,"message":"Rate limit exceeded"}`)
			return
		}
		fmt.Fprint(w, chartJSON([2]string{"Smells Like Teen Spirit", "Nirvana"}))
	})

	tracks, err := client.TopTracks(context.Background(), "angry", 5)
	if err != nil {
		t.Fatalf("TopTracks() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].Artist != "Nirvana" {
		t.Errorf("TopTracks() got unexpected tracks: %v", tracks)
	}
	if count := requestCount.Load(); count != 3 {
		t.Errorf("Expected 3 requests, got %d", count)
	}
}

func TestTopTracks_RateLimitExhausted(t *testing.T) {
	var requestCount atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		fmt.Fprint(w, `{"error":29,"message":"Rate limit exceeded"}`)
	})

	_, err := client.TopTracks(context.Background(), "angry", 5)
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("TopTracks() error = %v, want ErrRateLimited", err)
	}

	// 1 initial + 3 retries
	if count := requestCount.Load(); count != 4 {
		t.Errorf("Expected 4 requests, got %d", count)
	}
}

func TestTopTracks_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	if _, err := client.TopTracks(context.Background(), "sad", 5); err == nil {
		t.Fatal("TopTracks() error = nil, want status error")
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-key")

	if client.apiKey != "test-key" {
		t.Errorf("NewClient() apiKey = %s, want test-key", client.apiKey)
	}
	if client.httpClient == nil {
		t.Error("NewClient() httpClient is nil")
	}
	if client.cache == nil {
		t.Error("NewClient() cache is nil")
	}
	if client.baseURL != baseURL {
		t.Errorf("NewClient() baseURL = %s, want %s", client.baseURL, baseURL)
	}
}
