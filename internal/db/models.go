package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/justestif/moodtunes/internal/music"
)

// User represents a signed-in Google account.
type User struct {
	ID          string    `json:"id"` // OpenID subject
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	IsAdmin     bool      `json:"isAdmin"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Session is a signed-in browser. It holds no provider tokens.
type Session struct {
	ID        string
	UserID    string
	UserAgent string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Favorite is a song a user marked as a favorite.
type Favorite struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"-"`
	YouTubeID string    `json:"youtubeId"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	AddedAt   time.Time `json:"addedAt"`
}

// Playlist is a user's named song collection. Songs is only populated
// when a single playlist is fetched.
type Playlist struct {
	ID          uuid.UUID      `json:"id"`
	UserID      string         `json:"-"`
	Name        string         `json:"name"`
	Description *string        `json:"description"` // nullable
	SongCount   int            `json:"songCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Songs       []PlaylistSong `json:"songs,omitempty"`
}

// PlaylistSong is a song in a playlist.
type PlaylistSong struct {
	PlaylistID uuid.UUID `json:"-"`
	YouTubeID  string    `json:"youtubeId"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	AddedAt    time.Time `json:"addedAt"`
}

// HistoryEntry records the recommendations shown for a detected mood.
type HistoryEntry struct {
	ID              uuid.UUID              `json:"id"`
	UserID          string                 `json:"-"`
	Mood            music.MoodAnalysis     `json:"mood"`
	Recommendations []music.Recommendation `json:"recommendations"`
	Timestamp       time.Time              `json:"timestamp"`
}
