package main

import (
	"net/http"

	"jukebox/internal/app/auth"
	"jukebox/internal/app/playlists"
	"jukebox/internal/app/queue"
	"jukebox/internal/httpapi"
	"jukebox/internal/middleware"
	"jukebox/internal/spotify"
	"jukebox/internal/store"
)

func newHTTPHandler(cfg Config, dataStore *store.Store) http.Handler {
	oauthCfg := spotify.NewOAuthConfig(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyRedirectURL)

	authSvc := auth.New(dataStore, oauthCfg, []byte(cfg.SessionSecret))
	playlistSvc := playlists.New(dataStore)
	queueSvc := queue.New(dataStore)

	handler := httpapi.New(authSvc, playlistSvc, queueSvc).Routes()

	handler = middleware.CORS(cfg.AllowedOrigin)(handler)
	handler = middleware.Recovery()(handler)
	handler = middleware.RequestLogging()(handler)

	return handler
}
