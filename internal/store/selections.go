package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PlaylistSelection records a playlist a user picked for their jukebox.
type PlaylistSelection struct {
	ID         int64
	UserID     int64
	PlaylistID string
	Name       string
	ImageURL   *string
	SelectedAt time.Time
}

// SaveSelectedPlaylist upserts the user's selection; re-selecting an
// already known playlist just bumps selected_at.
func (s *Store) SaveSelectedPlaylist(ctx context.Context, userID int64, sel PlaylistSelection) (PlaylistSelection, error) {
	if sel.PlaylistID == "" {
		return PlaylistSelection{}, fmt.Errorf("playlist id is required")
	}

	sel.UserID = userID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO playlist_selections (user_id, spotify_playlist_id, playlist_name, playlist_image_url, selected_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, spotify_playlist_id)
		DO UPDATE SET playlist_name = EXCLUDED.playlist_name,
		              playlist_image_url = EXCLUDED.playlist_image_url,
		              selected_at = EXCLUDED.selected_at
		RETURNING id, selected_at
	`, userID, sel.PlaylistID, sel.Name, sel.ImageURL, time.Now().UTC()).Scan(&sel.ID, &sel.SelectedAt)
	if err != nil {
		return PlaylistSelection{}, fmt.Errorf("upsert playlist selection: %w", err)
	}

	return sel, nil
}

// LastSelectedPlaylist returns the user's most recent selection.
func (s *Store) LastSelectedPlaylist(ctx context.Context, userID int64) (PlaylistSelection, error) {
	var sel PlaylistSelection
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, spotify_playlist_id, playlist_name, playlist_image_url, selected_at
		FROM playlist_selections
		WHERE user_id = $1
		ORDER BY selected_at DESC
		LIMIT 1
	`, userID).Scan(&sel.ID, &sel.UserID, &sel.PlaylistID, &sel.Name, &sel.ImageURL, &sel.SelectedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PlaylistSelection{}, ErrNoSelection
		}
		return PlaylistSelection{}, fmt.Errorf("last selected playlist: %w", err)
	}
	return sel, nil
}

// ListSelections returns every playlist the user has ever selected,
// newest first.
func (s *Store) ListSelections(ctx context.Context, userID int64) ([]PlaylistSelection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, spotify_playlist_id, playlist_name, playlist_image_url, selected_at
		FROM playlist_selections
		WHERE user_id = $1
		ORDER BY selected_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	defer rows.Close()

	var selections []PlaylistSelection
	for rows.Next() {
		var sel PlaylistSelection
		if err := rows.Scan(&sel.ID, &sel.UserID, &sel.PlaylistID, &sel.Name, &sel.ImageURL, &sel.SelectedAt); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		selections = append(selections, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate selections: %w", err)
	}
	return selections, nil
}
