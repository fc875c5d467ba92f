package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"jukebox/internal/app/auth"
	"jukebox/internal/app/playlists"
	"jukebox/internal/app/queue"
	"jukebox/internal/logging"
	"jukebox/internal/spotify"
	"jukebox/internal/store"
)

// AuthService captures the session and identity operations needed by the
// HTTP handlers.
type AuthService interface {
	Register(ctx context.Context, email, displayName, password, confirm string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	SessionFromCookie(ctx context.Context, cookieValue string) (*store.Session, error)
	BeginSpotifyAuth(ctx context.Context, sess *store.Session) (string, error)
	CompleteSpotifyAuth(ctx context.Context, sess *store.Session, code, state string) error
	ActiveClient(ctx context.Context, sess *store.Session) (spotify.API, error)
	ExpireSpotifyToken(ctx context.Context, sess *store.Session)
	Logout(ctx context.Context, sess *store.Session) error
}

// PlaylistService coordinates playlist listing and selection.
type PlaylistService interface {
	List(ctx context.Context, catalog playlists.Catalog) ([]playlists.Summary, error)
	Select(ctx context.Context, catalog playlists.Catalog, sess *store.Session, playlistID string) (store.PlaylistSelection, error)
	Selections(ctx context.Context, userID int64) ([]store.PlaylistSelection, error)
}

// QueueService coordinates track listing, enqueueing, and history.
type QueueService interface {
	Tracks(ctx context.Context, player queue.Player, playlistID string) ([]queue.TrackView, error)
	Enqueue(ctx context.Context, player queue.Player, sess *store.Session, req queue.EnqueueRequest) error
	History(ctx context.Context, userID int64, limit int) ([]store.QueueHistoryEntry, error)
	Recent(ctx context.Context, userID int64, days int) ([]store.QueueHistoryEntry, error)
}

// Server wires HTTP handlers to the underlying services.
type Server struct {
	auth      AuthService
	playlists PlaylistService
	queue     QueueService
}

// New configures a Server with the given services.
func New(authSvc AuthService, playlistSvc PlaylistService, queueSvc QueueService) *Server {
	return &Server{
		auth:      authSvc,
		playlists: playlistSvc,
		queue:     queueSvc,
	}
}

// Routes exposes the HTTP handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Pages
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /register", s.handleIndex)
	mux.HandleFunc("GET /login", s.handleIndex)
	mux.HandleFunc("GET /select_playlist", s.handleSelectPlaylistPage)
	mux.HandleFunc("GET /jukebox", s.handleJukeboxPage)

	// Auth flow
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /login_spotify", s.handleLoginSpotify)
	mux.HandleFunc("GET /callback", s.handleCallback)
	mux.HandleFunc("GET /logout", s.handleLogout)

	// JSON API
	mux.HandleFunc("GET /api/user_playlists", s.handleUserPlaylists)
	mux.HandleFunc("POST /api/set_playlist", s.handleSetPlaylist)
	mux.HandleFunc("GET /api/playlist_tracks", s.handlePlaylistTracks)
	mux.HandleFunc("POST /api/add_to_queue", s.handleAddToQueue)
	mux.HandleFunc("GET /api/queue_history", s.handleQueueHistory)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
}

// session resolves the browser cookie into the server-side session.
func (s *Server) session(r *http.Request) (*store.Session, error) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil {
		return nil, store.ErrUnauthorized
	}
	return s.auth.SessionFromCookie(r.Context(), cookie.Value)
}

// apiError maps service errors onto the fixed status codes. An expired
// upstream token additionally clears the stored pair so the next request
// re-prompts instead of looping.
func (s *Server) apiError(w http.ResponseWriter, r *http.Request, sess *store.Session, err error) {
	var conflict *store.SpotifyLinkConflictError

	switch {
	case errors.Is(err, spotify.ErrTokenExpired):
		if sess != nil {
			s.auth.ExpireSpotifyToken(r.Context(), sess)
		}
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "spotify access token expired, please log in again"})
	case errors.Is(err, store.ErrUnauthorized),
		errors.Is(err, store.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSpotifyNotLinked):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, spotify.ErrNoActiveDevice):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "no active device found, start playback on a device first"})
	case errors.As(err, &conflict), errors.Is(err, store.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrEmailRequired),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, auth.ErrMissingCode),
		errors.Is(err, playlists.ErrMissingPlaylistID),
		errors.Is(err, queue.ErrMissingTrackURI):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logging.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "unexpected error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

const flashCookieName = "jukebox_flash"

func setFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return message
}

func setSessionCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
