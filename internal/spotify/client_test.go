package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zmb3/spotify/v2"
)

func TestConvertTrack(t *testing.T) {
	tests := []struct {
		name           string
		track          spotify.FullTrack
		expectedID     string
		expectedArtist string
		expectedAlbum  string
	}{
		{
			name: "single artist",
			track: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					ID:      "track123",
					Name:    "Test Song",
					Artists: []spotify.SimpleArtist{{Name: "Artist One"}},
				},
				Album: spotify.SimpleAlbum{Name: "Debut"},
			},
			expectedID:     "track123",
			expectedArtist: "Artist One",
			expectedAlbum:  "Debut",
		},
		{
			name: "multiple artists",
			track: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{
					ID:   "track456",
					Name: "Collab Track",
					Artists: []spotify.SimpleArtist{
						{Name: "Artist A"},
						{Name: "Artist B"},
						{Name: "Artist C"},
					},
				},
			},
			expectedID:     "track456",
			expectedArtist: "Artist A, Artist B, Artist C",
		},
		{
			name: "no artists",
			track: spotify.FullTrack{
				SimpleTrack: spotify.SimpleTrack{ID: "track000", Name: "Unknown Track"},
			},
			expectedID:     "track000",
			expectedArtist: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertTrack(tt.track)

			if got.ID != tt.expectedID {
				t.Errorf("ID = %q, want %q", got.ID, tt.expectedID)
			}
			if got.Name != tt.track.Name {
				t.Errorf("Name = %q, want %q", got.Name, tt.track.Name)
			}
			if got.Artist != tt.expectedArtist {
				t.Errorf("Artist = %q, want %q", got.Artist, tt.expectedArtist)
			}
			if got.Album != tt.expectedAlbum {
				t.Errorf("Album = %q, want %q", got.Album, tt.expectedAlbum)
			}
		})
	}
}

func TestEraYears(t *testing.T) {
	tests := []struct {
		era  string
		want string
	}{
		{"80s", "1980-1989"},
		{"90's", "1990-1999"},
		{"1970s", "1970-1979"},
		{"2010s", "2010-2019"},
		{"00s", "2000-2009"},
		{"1995", "1995"},
		{"current hits", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.era, func(t *testing.T) {
			if got := EraYears(tt.era); got != tt.want {
				t.Errorf("EraYears(%q) = %q, want %q", tt.era, got, tt.want)
			}
		})
	}
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		genre string
		era   string
		want  string
	}{
		{"all parts", "happy", "Pop", "80s", `happy genre:"pop" year:1980-1989`},
		{"text only", "chill", "", "", "chill"},
		{"unknown era dropped", "", "Jazz", "sometime", `genre:"jazz"`},
		{"empty", " ", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Query(tt.text, tt.genre, tt.era); got != tt.want {
				t.Errorf("Query() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchTracks(t *testing.T) {
	var gotQuery, gotType, gotLimit, gotMarket string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery, gotType, gotLimit, gotMarket = q.Get("q"), q.Get("type"), q.Get("limit"), q.Get("market")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"tracks": {"items": [
			{"id": "t1", "name": "Walking on Sunshine", "popularity": 80,
			 "artists": [{"name": "Katrina and the Waves"}], "album": {"name": "Walking on Sunshine"}}
		], "total": 1}}`)
	}))
	defer server.Close()

	api := spotify.New(server.Client(), spotify.WithBaseURL(server.URL+"/"))
	c := New(api, "US")

	tracks, err := c.SearchTracks(context.Background(), "happy", 500)
	if err != nil {
		t.Fatalf("SearchTracks() error = %v", err)
	}
	if len(tracks) != 1 || tracks[0].Name != "Walking on Sunshine" || tracks[0].Artist != "Katrina and the Waves" || tracks[0].Popularity != 80 {
		t.Errorf("tracks = %+v", tracks)
	}
	if gotQuery != "happy" || gotType != "track" || gotLimit != "50" || gotMarket != "US" {
		t.Errorf("params q=%q type=%q limit=%q market=%q", gotQuery, gotType, gotLimit, gotMarket)
	}
}
