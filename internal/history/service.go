// Package history records the recommendations shown to signed-in users.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/moodtunes/internal/db"
	"github.com/justestif/moodtunes/internal/insights"
	"github.com/justestif/moodtunes/internal/music"
)

// List limits.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// ErrNotFound is returned when an entry does not exist for the user.
var ErrNotFound = db.ErrNotFound

// ErrEmpty is returned when saving an entry without recommendations.
var ErrEmpty = errors.New("no recommendations to save")

// Store persists history entries. List returns newest first.
type Store interface {
	Save(ctx context.Context, entry *db.HistoryEntry) error
	List(ctx context.Context, userID string, limit int) ([]db.HistoryEntry, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// Service handles history persistence.
type Service struct {
	store Store
	now   func() time.Time
}

// New creates a history service.
func New(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Save records recs shown for mood at the current time.
func (s *Service) Save(ctx context.Context, userID string, recs []music.Recommendation, mood music.MoodAnalysis) (*db.HistoryEntry, error) {
	if len(recs) == 0 {
		return nil, ErrEmpty
	}

	entry := &db.HistoryEntry{
		ID:              uuid.New(),
		UserID:          userID,
		Mood:            mood,
		Recommendations: recs,
		Timestamp:       s.now(),
	}
	if err := s.store.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("saving history: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, newest first. A non-positive limit
// means DefaultLimit; larger limits are capped at MaxLimit.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]db.HistoryEntry, error) {
	entries, err := s.store.List(ctx, userID, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	if entries == nil {
		entries = []db.HistoryEntry{}
	}
	return entries, nil
}

// Delete removes one entry.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.store.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting history: %w", err)
	}
	return nil
}

// Insights clusters the user's most recent MaxLimit entries by mood.
func (s *Service) Insights(ctx context.Context, userID string, cfg insights.Config) (insights.Result, error) {
	entries, err := s.store.List(ctx, userID, MaxLimit)
	if err != nil {
		return insights.Result{}, fmt.Errorf("loading history: %w", err)
	}
	return insights.Cluster(entries, cfg), nil
}

// ClampLimit applies the list limit rules.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
