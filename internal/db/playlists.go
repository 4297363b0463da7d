package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlaylistRepository handles playlist database operations.
type PlaylistRepository struct {
	pool *pgxpool.Pool
}

const playlistColumns = `id, user_id, name, description, song_count, created_at, updated_at`

func scanPlaylist(row pgx.Row) (Playlist, error) {
	var p Playlist
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.SongCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts a new empty playlist.
func (r *PlaylistRepository) Create(ctx context.Context, p *Playlist) error {
	query := `
		INSERT INTO playlists (id, user_id, name, description, song_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.SongCount = 0
	if err := r.pool.QueryRow(ctx, query, p.ID, p.UserID, p.Name, p.Description).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("inserting playlist: %w", err)
	}
	return nil
}

// List returns a user's playlists without songs, newest first.
func (r *PlaylistRepository) List(ctx context.Context, userID string) ([]Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying playlists: %w", err)
	}

	playlists, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Playlist, error) {
		return scanPlaylist(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scanning playlists: %w", err)
	}
	return playlists, nil
}

// Get retrieves a user's playlist with its songs in the order added.
func (r *PlaylistRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = $1 AND user_id = $2`
	p, err := scanPlaylist(r.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying playlist: %w", err)
	}

	songsQuery := `
		SELECT playlist_id, youtube_id, title, artist, added_at
		FROM playlist_songs
		WHERE playlist_id = $1
		ORDER BY added_at
	`
	rows, err := r.pool.Query(ctx, songsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("querying playlist songs: %w", err)
	}
	p.Songs, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (PlaylistSong, error) {
		var s PlaylistSong
		err := row.Scan(&s.PlaylistID, &s.YouTubeID, &s.Title, &s.Artist, &s.AddedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning playlist songs: %w", err)
	}
	return &p, nil
}

// Update saves the name and description of a playlist.
func (r *PlaylistRepository) Update(ctx context.Context, p *Playlist) error {
	query := `
		UPDATE playlists
		SET name = $3, description = $4, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`
	err := r.pool.QueryRow(ctx, query, p.ID, p.UserID, p.Name, p.Description).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating playlist: %w", err)
	}
	return nil
}

// Delete removes a playlist and its songs.
func (r *PlaylistRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM playlists WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting playlist: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddSong appends a song and bumps the song count. It returns ErrNotFound
// for an unknown playlist and ErrDuplicate if the video is already in it.
func (r *PlaylistRepository) AddSong(ctx context.Context, userID string, song *PlaylistSong) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	bump := `
		UPDATE playlists SET song_count = song_count + 1, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	result, err := tx.Exec(ctx, bump, song.PlaylistID, userID)
	if err != nil {
		return fmt.Errorf("updating song count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	insert := `
		INSERT INTO playlist_songs (playlist_id, youtube_id, title, artist, added_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING added_at
	`
	err = tx.QueryRow(ctx, insert, song.PlaylistID, song.YouTubeID, song.Title, song.Artist).Scan(&song.AddedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting playlist song: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// RemoveSong deletes a song and decrements the song count.
func (r *PlaylistRepository) RemoveSong(ctx context.Context, userID string, playlistID uuid.UUID, youtubeID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	remove := `
		DELETE FROM playlist_songs ps
		USING playlists p
		WHERE ps.playlist_id = p.id AND p.id = $1 AND p.user_id = $2 AND ps.youtube_id = $3
	`
	result, err := tx.Exec(ctx, remove, playlistID, userID, youtubeID)
	if err != nil {
		return fmt.Errorf("deleting playlist song: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	drop := `
		UPDATE playlists SET song_count = GREATEST(song_count - 1, 0), updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, drop, playlistID); err != nil {
		return fmt.Errorf("updating song count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
