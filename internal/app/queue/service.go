// Package queue lists the tracks of the selected playlist and pushes
// chosen tracks onto the active playback device, logging each push.
package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"jukebox/internal/logging"
	"jukebox/internal/spotify"
	"jukebox/internal/store"
)

// ErrMissingTrackURI signals an enqueue request without a track URI.
var ErrMissingTrackURI = errors.New("track uri is required")

// Player captures the Spotify calls the service needs.
type Player interface {
	PlaylistTracks(ctx context.Context, playlistID string) ([]spotify.PlaylistTrack, error)
	AddToQueue(ctx context.Context, trackURI string) error
}

// Store captures the history persistence needs.
type Store interface {
	AppendQueueHistory(ctx context.Context, entry store.QueueHistoryEntry) error
	QueueHistory(ctx context.Context, userID int64, limit int) ([]store.QueueHistoryEntry, error)
	RecentTracks(ctx context.Context, userID int64, since time.Time) ([]store.QueueHistoryEntry, error)
}

// TrackView is the track shape returned to the browser.
type TrackView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Artist   string `json:"artist"`
	URI      string `json:"uri"`
	AlbumArt string `json:"album_art"`
}

// EnqueueRequest carries the fields the browser submits when queuing.
type EnqueueRequest struct {
	TrackURI    string
	TrackID     string
	TrackName   string
	TrackArtist string
}

// Service coordinates queue operations.
type Service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(st Store) *Service {
	return &Service{store: st}
}

// Tracks returns the playlist's tracks across all pages. Null entries
// (removed tracks whose slot remains) are dropped, artist names are
// joined with ", ", and album art stays empty when the album has no
// images.
func (s *Service) Tracks(ctx context.Context, player Player, playlistID string) ([]TrackView, error) {
	items, err := player.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	views := make([]TrackView, 0, len(items))
	for _, item := range items {
		track := item.Track
		if track == nil {
			continue
		}

		names := make([]string, 0, len(track.Artists))
		for _, artist := range track.Artists {
			names = append(names, artist.Name)
		}

		view := TrackView{
			ID:     track.ID,
			Name:   track.Name,
			Artist: strings.Join(names, ", "),
			URI:    track.URI,
		}
		if len(track.Album.Images) > 0 {
			view.AlbumArt = track.Album.Images[0].URL
		}
		views = append(views, view)
	}

	return views, nil
}

// Enqueue pushes the track onto the active device. The history append
// after a successful push is best-effort: a failure there is logged and
// never rolls back or masks the enqueue.
func (s *Service) Enqueue(ctx context.Context, player Player, sess *store.Session, req EnqueueRequest) error {
	if req.TrackURI == "" {
		return ErrMissingTrackURI
	}

	if err := player.AddToQueue(ctx, req.TrackURI); err != nil {
		return err
	}

	var playlistID *string
	if sess.PlaylistID != "" {
		playlistID = &sess.PlaylistID
	}

	if err := s.store.AppendQueueHistory(ctx, store.QueueHistoryEntry{
		UserID:     sess.UserID,
		TrackID:    req.TrackID,
		TrackName:  req.TrackName,
		Artist:     req.TrackArtist,
		PlaylistID: playlistID,
	}); err != nil {
		logging.WithContext(ctx).Warn().Err(err).Msg("queue history append failed")
	}

	return nil
}

// History returns the user's most recent queue entries.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]store.QueueHistoryEntry, error) {
	return s.store.QueueHistory(ctx, userID, limit)
}

// Recent returns entries from the last N days.
func (s *Service) Recent(ctx context.Context, userID int64, days int) ([]store.QueueHistoryEntry, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.store.RecentTracks(ctx, userID, since)
}
