package store

import (
	"context"
	"fmt"
	"time"
)

// QueueHistoryEntry records one track pushed onto the playback queue.
// The table is append-only; nothing updates or deletes rows.
type QueueHistoryEntry struct {
	ID         int64
	UserID     int64
	TrackID    string
	TrackName  string
	Artist     string
	PlaylistID *string
	AddedAt    time.Time
}

// AppendQueueHistory inserts a history row.
func (s *Store) AppendQueueHistory(ctx context.Context, entry QueueHistoryEntry) error {
	if entry.TrackID == "" {
		return fmt.Errorf("track id is required")
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO queue_history (user_id, spotify_track_id, track_name, track_artist, playlist_id, added_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.UserID, entry.TrackID, entry.TrackName, entry.Artist, entry.PlaylistID, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert queue history: %w", err)
	}
	return nil
}

// QueueHistory returns the user's most recent entries, newest first.
func (s *Store) QueueHistory(ctx context.Context, userID int64, limit int) ([]QueueHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	return s.queryHistory(ctx, `
		SELECT id, user_id, spotify_track_id, track_name, track_artist, playlist_id, added_at
		FROM queue_history
		WHERE user_id = $1
		ORDER BY added_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
}

// RecentTracks returns entries added since the given instant.
func (s *Store) RecentTracks(ctx context.Context, userID int64, since time.Time) ([]QueueHistoryEntry, error) {
	return s.queryHistory(ctx, `
		SELECT id, user_id, spotify_track_id, track_name, track_artist, playlist_id, added_at
		FROM queue_history
		WHERE user_id = $1 AND added_at >= $2
		ORDER BY added_at DESC, id DESC
	`, userID, since)
}

func (s *Store) queryHistory(ctx context.Context, query string, args ...any) ([]QueueHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query queue history: %w", err)
	}
	defer rows.Close()

	var entries []QueueHistoryEntry
	for rows.Next() {
		var entry QueueHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.TrackID, &entry.TrackName,
			&entry.Artist, &entry.PlaylistID, &entry.AddedAt); err != nil {
			return nil, fmt.Errorf("scan queue history: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queue history: %w", err)
	}
	return entries, nil
}
