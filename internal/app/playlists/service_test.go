package playlists

import (
	"context"
	"errors"
	"testing"

	"jukebox/internal/spotify"
	"jukebox/internal/store"
)

type stubCatalog struct {
	playlists   []spotify.Playlist
	playlist    *spotify.Playlist
	playlistErr error
}

func (c *stubCatalog) CurrentUserPlaylists(ctx context.Context) ([]spotify.Playlist, error) {
	return c.playlists, nil
}

func (c *stubCatalog) Playlist(ctx context.Context, id string) (*spotify.Playlist, error) {
	if c.playlistErr != nil {
		return nil, c.playlistErr
	}
	return c.playlist, nil
}

type stubStore struct {
	saved       *store.PlaylistSelection
	sessionID   string
	sessionName string
	selections  []store.PlaylistSelection
}

func (s *stubStore) SaveSelectedPlaylist(ctx context.Context, userID int64, sel store.PlaylistSelection) (store.PlaylistSelection, error) {
	s.saved = &sel
	sel.ID = 1
	sel.UserID = userID
	return sel, nil
}

func (s *stubStore) SetSessionPlaylist(ctx context.Context, token, playlistID, playlistName string) error {
	s.sessionID = playlistID
	s.sessionName = playlistName
	return nil
}

func (s *stubStore) ListSelections(ctx context.Context, userID int64) ([]store.PlaylistSelection, error) {
	return s.selections, nil
}

func TestListMapsPlaylists(t *testing.T) {
	catalog := &stubCatalog{playlists: []spotify.Playlist{
		{
			ID:     "p1",
			Name:   "Party Mix",
			Images: []spotify.Image{{URL: "https://img/p1.jpg"}, {URL: "https://img/p1-small.jpg"}},
			Owner:  spotify.Owner{DisplayName: "Ana"},
		},
		{ID: "p2", Name: "No Art"},
	}}
	catalog.playlists[0].Tracks.Total = 12

	summaries, err := New(&stubStore{}).List(context.Background(), catalog)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}

	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	first := summaries[0]
	if first.ID != "p1" || first.Name != "Party Mix" || first.Owner != "Ana" || first.TrackCount != 12 {
		t.Fatalf("unexpected first summary: %+v", first)
	}
	if first.Image != "https://img/p1.jpg" {
		t.Fatalf("expected the first image, got %q", first.Image)
	}
	if summaries[1].Image != "" {
		t.Fatalf("expected empty image for artless playlist, got %q", summaries[1].Image)
	}
}

func TestSelectValidatesBeforeWrite(t *testing.T) {
	st := &stubStore{}
	svc := New(st)
	sess := &store.Session{Token: "tok", UserID: 7}

	catalog := &stubCatalog{playlistErr: errors.New("playlist not found")}
	if _, err := svc.Select(context.Background(), catalog, sess, "bogus"); err == nil {
		t.Fatal("expected lookup error to propagate")
	}
	if st.saved != nil {
		t.Fatal("rejected playlist must not be written")
	}
}

func TestSelectMissingID(t *testing.T) {
	svc := New(&stubStore{})

	_, err := svc.Select(context.Background(), &stubCatalog{}, &store.Session{UserID: 7}, "")
	if !errors.Is(err, ErrMissingPlaylistID) {
		t.Fatalf("expected ErrMissingPlaylistID, got %v", err)
	}
}

func TestSelectRequiresUser(t *testing.T) {
	svc := New(&stubStore{})

	_, err := svc.Select(context.Background(), &stubCatalog{}, &store.Session{Token: "tok"}, "p1")
	if !errors.Is(err, store.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSelectMirrorsIntoSession(t *testing.T) {
	st := &stubStore{}
	svc := New(st)
	sess := &store.Session{Token: "tok", UserID: 7}

	catalog := &stubCatalog{playlist: &spotify.Playlist{
		ID:     "p1",
		Name:   "Party Mix",
		Images: []spotify.Image{{URL: "https://img/p1.jpg"}},
	}}

	sel, err := svc.Select(context.Background(), catalog, sess, "p1")
	if err != nil {
		t.Fatalf("Select error: %v", err)
	}

	if sel.PlaylistID != "p1" || sel.ImageURL == nil || *sel.ImageURL != "https://img/p1.jpg" {
		t.Fatalf("unexpected selection: %+v", sel)
	}
	if st.sessionID != "p1" || st.sessionName != "Party Mix" {
		t.Fatalf("selection not mirrored into the session row: %q %q", st.sessionID, st.sessionName)
	}
	if sess.PlaylistID != "p1" || sess.PlaylistName != "Party Mix" {
		t.Fatalf("in-memory session not updated: %+v", sess)
	}
}
