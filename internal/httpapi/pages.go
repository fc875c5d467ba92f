package httpapi

import (
	"errors"
	"html/template"
	"net/http"

	"jukebox/internal/app/auth"
	"jukebox/internal/app/playlists"
	"jukebox/internal/logging"
	"jukebox/internal/spotify"
	"jukebox/internal/store"
)

// Pages are deliberately minimal server-rendered shells; the browser
// talks to the /api endpoints for anything interactive.
var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "index"}}<!DOCTYPE html>
<html><head><title>Jukebox</title></head><body>
<h1>Party Jukebox</h1>
{{if .Flash}}<p class="flash">{{.Flash}}</p>{{end}}
<h2>Log in</h2>
<form method="post" action="/login">
  <input type="email" name="email" placeholder="email" required>
  <input type="password" name="password" placeholder="password" required>
  <button type="submit">Log in</button>
</form>
<h2>Register</h2>
<form method="post" action="/register">
  <input type="email" name="email" placeholder="email" required>
  <input type="text" name="display_name" placeholder="display name">
  <input type="password" name="password" placeholder="password" required>
  <input type="password" name="password_confirm" placeholder="confirm password" required>
  <button type="submit">Register</button>
</form>
</body></html>{{end}}

{{define "select_playlist"}}<!DOCTYPE html>
<html><head><title>Pick a playlist</title></head><body>
<h1>Pick a playlist</h1>
{{if .Flash}}<p class="flash">{{.Flash}}</p>{{end}}
<ul>
{{range .Playlists}}<li data-id="{{.ID}}">{{.Name}} ({{.TrackCount}} tracks, {{.Owner}})</li>
{{else}}<li>No playlists found.</li>
{{end}}
</ul>
{{if .Previous}}<h2>Previous picks</h2>
<ul>
{{range .Previous}}<li data-id="{{.PlaylistID}}">{{.Name}}</li>
{{end}}
</ul>
{{end}}
<p><a href="/logout">Log out</a></p>
</body></html>{{end}}

{{define "jukebox"}}<!DOCTYPE html>
<html><head><title>Jukebox</title></head><body>
<h1>Jukebox</h1>
{{if .Flash}}<p class="flash">{{.Flash}}</p>{{end}}
<p>Now serving tracks from <strong>{{.PlaylistName}}</strong>.</p>
<p><a href="/select_playlist">Change playlist</a> | <a href="/logout">Log out</a></p>
</body></html>{{end}}
`))

type pageData struct {
	Flash        string
	PlaylistName string
	Playlists    []playlists.Summary
	Previous     []store.PlaylistSelection
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		logging.WithContext(r.Context()).Error().Err(err).Str("template", name).Msg("render page")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, "index", pageData{Flash: popFlash(w, r)})
}

func (s *Server) handleSelectPlaylistPage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		setFlash(w, "Please log in first.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	client, err := s.auth.ActiveClient(r.Context(), sess)
	if err != nil {
		if errors.Is(err, auth.ErrSpotifyNotLinked) || errors.Is(err, spotify.ErrTokenExpired) {
			setFlash(w, "Please log in with Spotify.")
			http.Redirect(w, r, "/login_spotify", http.StatusSeeOther)
			return
		}
		s.apiError(w, r, sess, err)
		return
	}

	list, err := s.playlists.List(r.Context(), client)
	if err != nil {
		s.apiError(w, r, sess, err)
		return
	}

	previous, err := s.playlists.Selections(r.Context(), sess.UserID)
	if err != nil {
		logging.WithContext(r.Context()).Warn().Err(err).Msg("load previous selections")
	}

	s.renderPage(w, r, "select_playlist", pageData{
		Flash:     popFlash(w, r),
		Playlists: list,
		Previous:  previous,
	})
}

func (s *Server) handleJukeboxPage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		setFlash(w, "Please log in first.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if sess.PlaylistID == "" {
		setFlash(w, "Pick a playlist first.")
		http.Redirect(w, r, "/select_playlist", http.StatusSeeOther)
		return
	}

	s.renderPage(w, r, "jukebox", pageData{
		Flash:        popFlash(w, r),
		PlaylistName: sess.PlaylistName,
	})
}
