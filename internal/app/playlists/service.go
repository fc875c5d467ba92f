// Package playlists lists a user's Spotify playlists and records which
// one feeds the jukebox.
package playlists

import (
	"context"
	"errors"

	"jukebox/internal/spotify"
	"jukebox/internal/store"
)

// ErrMissingPlaylistID signals a selection request without an id.
var ErrMissingPlaylistID = errors.New("playlist id is required")

// Catalog captures the Spotify calls the service needs.
type Catalog interface {
	CurrentUserPlaylists(ctx context.Context) ([]spotify.Playlist, error)
	Playlist(ctx context.Context, id string) (*spotify.Playlist, error)
}

// Store captures the persistence needs for selection workflows.
type Store interface {
	SaveSelectedPlaylist(ctx context.Context, userID int64, sel store.PlaylistSelection) (store.PlaylistSelection, error)
	SetSessionPlaylist(ctx context.Context, token, playlistID, playlistName string) error
	ListSelections(ctx context.Context, userID int64) ([]store.PlaylistSelection, error)
}

// Summary is the playlist shape returned to the browser.
type Summary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	TrackCount int    `json:"track_count"`
	Owner      string `json:"owner"`
}

// Service coordinates playlist listing and selection.
type Service struct {
	store Store
}

// New constructs a Service backed by the provided Store.
func New(st Store) *Service {
	return &Service{store: st}
}

// List flattens every page of the user's playlists in the API's native
// order.
func (s *Service) List(ctx context.Context, catalog Catalog) ([]Summary, error) {
	playlists, err := catalog.CurrentUserPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(playlists))
	for _, p := range playlists {
		summary := Summary{
			ID:         p.ID,
			Name:       p.Name,
			TrackCount: p.Tracks.Total,
			Owner:      p.Owner.DisplayName,
		}
		if len(p.Images) > 0 {
			summary.Image = p.Images[0].URL
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// Select validates the playlist against the external service before any
// write, then upserts the selection and mirrors it into the session.
func (s *Service) Select(ctx context.Context, catalog Catalog, sess *store.Session, playlistID string) (store.PlaylistSelection, error) {
	if playlistID == "" {
		return store.PlaylistSelection{}, ErrMissingPlaylistID
	}
	if sess.UserID == 0 {
		return store.PlaylistSelection{}, store.ErrUnauthorized
	}

	playlist, err := catalog.Playlist(ctx, playlistID)
	if err != nil {
		return store.PlaylistSelection{}, err
	}

	var imageURL *string
	if len(playlist.Images) > 0 {
		imageURL = &playlist.Images[0].URL
	}

	sel, err := s.store.SaveSelectedPlaylist(ctx, sess.UserID, store.PlaylistSelection{
		PlaylistID: playlist.ID,
		Name:       playlist.Name,
		ImageURL:   imageURL,
	})
	if err != nil {
		return store.PlaylistSelection{}, err
	}

	if err := s.store.SetSessionPlaylist(ctx, sess.Token, playlist.ID, playlist.Name); err != nil {
		return store.PlaylistSelection{}, err
	}
	sess.PlaylistID = playlist.ID
	sess.PlaylistName = playlist.Name

	return sel, nil
}

// Selections returns every playlist the user has selected, newest first.
func (s *Service) Selections(ctx context.Context, userID int64) ([]store.PlaylistSelection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.ListSelections(ctx, userID)
}
