package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRepository handles recommendation history database operations.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// Save inserts a history entry. Mood and recommendations are stored as
// JSONB documents.
func (r *HistoryRepository) Save(ctx context.Context, entry *HistoryEntry) error {
	query := `
		INSERT INTO history (id, user_id, mood, recommendations, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := r.pool.Exec(ctx, query, entry.ID, entry.UserID, entry.Mood, entry.Recommendations, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (r *HistoryRepository) List(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	query := `
		SELECT id, user_id, mood, recommendations, created_at
		FROM history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (HistoryEntry, error) {
		var e HistoryEntry
		err := row.Scan(&e.ID, &e.UserID, &e.Mood, &e.Recommendations, &e.Timestamp)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning history: %w", err)
	}
	return entries, nil
}

// Delete removes a user's history entry.
func (r *HistoryRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM history WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting history entry: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
