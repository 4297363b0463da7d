package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FavoriteRepository handles favorite song database operations.
type FavoriteRepository struct {
	pool *pgxpool.Pool
}

// Add inserts a favorite. It returns ErrDuplicate if the user already
// has the video as a favorite.
func (r *FavoriteRepository) Add(ctx context.Context, fav *Favorite) error {
	query := `
		INSERT INTO favorites (id, user_id, youtube_id, title, artist, added_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING added_at
	`
	if fav.ID == uuid.Nil {
		fav.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		fav.ID,
		fav.UserID,
		fav.YouTubeID,
		fav.Title,
		fav.Artist,
	).Scan(&fav.AddedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting favorite: %w", err)
	}
	return nil
}

// List returns a user's favorites, newest first.
func (r *FavoriteRepository) List(ctx context.Context, userID string) ([]Favorite, error) {
	query := `
		SELECT id, user_id, youtube_id, title, artist, added_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY added_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}

	favorites, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Favorite, error) {
		var f Favorite
		err := row.Scan(&f.ID, &f.UserID, &f.YouTubeID, &f.Title, &f.Artist, &f.AddedAt)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning favorites: %w", err)
	}
	return favorites, nil
}

// Delete removes a favorite by video ID.
func (r *FavoriteRepository) Delete(ctx context.Context, userID, youtubeID string) error {
	query := `DELETE FROM favorites WHERE user_id = $1 AND youtube_id = $2`
	result, err := r.pool.Exec(ctx, query, userID, youtubeID)
	if err != nil {
		return fmt.Errorf("deleting favorite: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether the video is one of the user's favorites.
func (r *FavoriteRepository) Exists(ctx context.Context, userID, youtubeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND youtube_id = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, youtubeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking favorite: %w", err)
	}
	return exists, nil
}
