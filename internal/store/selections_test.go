package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSaveSelectedPlaylist(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`
		INSERT INTO playlist_selections (user_id, spotify_playlist_id, playlist_name, playlist_image_url, selected_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, spotify_playlist_id)
	`)).
		WithArgs(int64(7), "p1", "Party Mix", nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "selected_at"}).AddRow(int64(5), now))

	sel, err := s.SaveSelectedPlaylist(context.Background(), 7, PlaylistSelection{
		PlaylistID: "p1",
		Name:       "Party Mix",
	})
	if err != nil {
		t.Fatalf("SaveSelectedPlaylist error: %v", err)
	}
	if sel.ID != 5 || sel.UserID != 7 {
		t.Fatalf("unexpected selection: %+v", sel)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveSelectedPlaylistRequiresID(t *testing.T) {
	s, _, closeDB := newMockStore(t)
	defer closeDB()

	if _, err := s.SaveSelectedPlaylist(context.Background(), 7, PlaylistSelection{}); err == nil {
		t.Fatal("expected error for empty playlist id")
	}
}

func TestLastSelectedPlaylistNone(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY selected_at DESC`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := s.LastSelectedPlaylist(context.Background(), 7); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
}

func TestListSelections(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	image := "https://img/p2.jpg"
	mock.ExpectQuery(regexp.QuoteMeta(`FROM playlist_selections`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "spotify_playlist_id", "playlist_name", "playlist_image_url", "selected_at"}).
			AddRow(int64(2), int64(7), "p2", "Late Night", image, time.Now()).
			AddRow(int64(1), int64(7), "p1", "Party Mix", nil, time.Now().Add(-time.Hour)))

	selections, err := s.ListSelections(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListSelections error: %v", err)
	}
	if len(selections) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(selections))
	}
	if selections[0].PlaylistID != "p2" || selections[0].ImageURL == nil || *selections[0].ImageURL != image {
		t.Fatalf("unexpected first selection: %+v", selections[0])
	}
	if selections[1].ImageURL != nil {
		t.Fatalf("expected nil image for second selection, got %v", *selections[1].ImageURL)
	}
}
