package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(srv *httptest.Server) *Client {
	return &Client{
		accessToken: "test-token",
		httpClient:  srv.Client(),
		baseURL:     srv.URL,
	}
}

func TestCurrentUserPlaylistsFollowsPages(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/me/playlists", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "1" {
			fmt.Fprint(w, `{"items":[{"id":"p2","name":"Second","owner":{"display_name":"Ana"},"tracks":{"total":3}}],"next":null}`)
			return
		}
		fmt.Fprintf(w, `{"items":[{"id":"p1","name":"First","owner":{"display_name":"Ana"},"images":[{"url":"https://img/p1.jpg"}],"tracks":{"total":12}}],"next":"%s/me/playlists?limit=50&offset=1"}`, srv.URL)
	})

	playlists, err := newTestClient(srv).CurrentUserPlaylists(context.Background())
	if err != nil {
		t.Fatalf("CurrentUserPlaylists error: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Fatalf("expected bearer auth header, got %q", gotAuth)
	}
	if len(playlists) != 2 {
		t.Fatalf("expected 2 playlists across pages, got %d", len(playlists))
	}
	if playlists[0].ID != "p1" || playlists[1].ID != "p2" {
		t.Fatalf("expected native order p1,p2 got %s,%s", playlists[0].ID, playlists[1].ID)
	}
	if playlists[0].Tracks.Total != 12 {
		t.Fatalf("expected 12 tracks, got %d", playlists[0].Tracks.Total)
	}
}

func TestPlaylistTracksKeepsNullSlots(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/playlists/p1/tracks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"items":[
			{"track":{"id":"t1","name":"Song","artists":[{"name":"A"},{"name":"B"}],"album":{"images":[{"url":"https://img/a.jpg"}]},"uri":"spotify:track:t1"}},
			{"track":null}
		],"next":null}`)
	})

	tracks, err := newTestClient(srv).PlaylistTracks(context.Background(), "p1")
	if err != nil {
		t.Fatalf("PlaylistTracks error: %v", err)
	}

	if len(tracks) != 2 {
		t.Fatalf("expected raw page to keep both slots, got %d", len(tracks))
	}
	if tracks[0].Track == nil || tracks[0].Track.ID != "t1" {
		t.Fatalf("unexpected first track: %+v", tracks[0].Track)
	}
	if tracks[1].Track != nil {
		t.Fatalf("expected nil track for removed slot, got %+v", tracks[1].Track)
	}
}

func TestAddToQueueNoActiveDevice(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/me/player/queue", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"status":404,"message":"Player command failed: No active device found","reason":"NO_ACTIVE_DEVICE"}}`)
	})

	err := newTestClient(srv).AddToQueue(context.Background(), "spotify:track:t1")
	if !errors.Is(err, ErrNoActiveDevice) {
		t.Fatalf("expected ErrNoActiveDevice, got %v", err)
	}
}

func TestAddToQueueSuccess(t *testing.T) {
	var gotURI string
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/me/player/queue", func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.URL.Query().Get("uri")
		w.WriteHeader(http.StatusNoContent)
	})

	if err := newTestClient(srv).AddToQueue(context.Background(), "spotify:track:t1"); err != nil {
		t.Fatalf("AddToQueue error: %v", err)
	}
	if gotURI != "spotify:track:t1" {
		t.Fatalf("expected track uri in query, got %q", gotURI)
	}
}

func TestExpiredTokenMapsToSentinel(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"status":401,"message":"The access token expired"}}`)
	})

	_, err := newTestClient(srv).CurrentUser(context.Background())
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAPIErrorCarriesStatusAndMessage(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/playlists/p9", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"status":404,"message":"Invalid playlist Id"}}`)
	})

	_, err := newTestClient(srv).Playlist(context.Background(), "p9")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "Invalid playlist Id" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}
