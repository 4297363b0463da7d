package recommend

import (
	"context"
	"strings"

	"github.com/justestif/moodtunes/internal/music"
)

// staticCatalog holds well-known songs per mood for running without the
// YouTube API.
var staticCatalog = map[string][]music.Recommendation{
	music.MoodHappy: {
		{Title: "Happy", Artist: "Pharrell Williams", YouTubeID: "ZbZSe6N_BXs", Genre: "Pop"},
		{Title: "Walking on Sunshine", Artist: "Katrina and the Waves", YouTubeID: "iPUmE-tne5U", Genre: "Pop Rock"},
		{Title: "Don't Stop Me Now", Artist: "Queen", YouTubeID: "HgzGwKwLmgM", Genre: "Rock"},
	},
	music.MoodSad: {
		{Title: "Someone Like You", Artist: "Adele", YouTubeID: "hLQl3WQQoQ0", Genre: "Pop"},
		{Title: "Fix You", Artist: "Coldplay", YouTubeID: "k4V3Mo61fJM", Genre: "Alternative"},
		{Title: "Hurt", Artist: "Johnny Cash", YouTubeID: "8AHCfZTRGiI", Genre: "Country"},
	},
	music.MoodEnergetic: {
		{Title: "Eye of the Tiger", Artist: "Survivor", YouTubeID: "btPJPFnesV4", Genre: "Rock"},
		{Title: "Lose Yourself", Artist: "Eminem", YouTubeID: "_Yhyp-_hX2s", Genre: "Hip Hop"},
		{Title: "Can't Hold Us", Artist: "Macklemore & Ryan Lewis", YouTubeID: "2zNSgSzhBfM", Genre: "Hip Hop"},
	},
	music.MoodRelaxed: {
		{Title: "Weightless", Artist: "Marconi Union", YouTubeID: "UfcAVejslrU", Genre: "Ambient"},
		{Title: "Sunset Lover", Artist: "Petit Biscuit", YouTubeID: "wuCK-oiE3rM", Genre: "Electronic"},
		{Title: "Here Comes the Sun", Artist: "The Beatles", YouTubeID: "KQetemT1sWc", Genre: "Rock"},
	},
	music.MoodAngry: {
		{Title: "Break Stuff", Artist: "Limp Bizkit", YouTubeID: "ZpUYjpKg9KY", Genre: "Nu Metal"},
		{Title: "Killing in the Name", Artist: "Rage Against the Machine", YouTubeID: "bWXazVhlyxQ", Genre: "Rap Metal"},
		{Title: "Numb", Artist: "Linkin Park", YouTubeID: "kXYiU_JCYtU", Genre: "Alternative Rock"},
	},
	music.MoodNeutral: {
		{Title: "Bohemian Rhapsody", Artist: "Queen", YouTubeID: "fJ9rUzIMcZQ", Genre: "Rock"},
		{Title: "Mr. Brightside", Artist: "The Killers", YouTubeID: "gGdGFtwCNBE", Genre: "Alternative Rock"},
		{Title: "Let It Be", Artist: "The Beatles", YouTubeID: "QDYfEBY9NM4", Genre: "Rock"},
	},
}

// StaticSource serves a fixed list per mood. Unknown moods get the
// neutral list.
type StaticSource struct{}

// NewStaticSource returns the offline source.
func NewStaticSource() StaticSource {
	return StaticSource{}
}

// Recommend implements Source.
func (StaticSource) Recommend(_ context.Context, mood music.MoodAnalysis) ([]music.Recommendation, error) {
	songs, ok := staticCatalog[strings.ToLower(mood.PrimaryMood)]
	if !ok {
		songs = staticCatalog[music.MoodNeutral]
	}
	if len(songs) == 0 {
		return nil, ErrNoRecommendations
	}

	out := make([]music.Recommendation, len(songs))
	for i, s := range songs {
		s.Mood = mood.PrimaryMood
		out[i] = s
	}
	return out, nil
}
