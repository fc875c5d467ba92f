package httpapi

import (
	"errors"
	"net/http"

	"jukebox/internal/store"
)

func (s *Server) handleLoginSpotify(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		setFlash(w, "Please log in first.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	authURL, err := s.auth.BeginSpotifyAuth(r.Context(), sess)
	if err != nil {
		s.apiError(w, r, sess, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback completes the authorization handshake. Any failure
// flashes a message and sends the user back to the authorization entry
// point rather than surfacing JSON.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		setFlash(w, "Please log in first.")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		setFlash(w, "Spotify login failed: "+providerErr)
		http.Redirect(w, r, "/login_spotify", http.StatusSeeOther)
		return
	}

	err = s.auth.CompleteSpotifyAuth(r.Context(), sess, query.Get("code"), query.Get("state"))
	if err != nil {
		var conflict *store.SpotifyLinkConflictError
		if errors.As(err, &conflict) {
			setFlash(w, conflict.Error())
		} else {
			setFlash(w, "Spotify login failed. Please try again.")
		}
		http.Redirect(w, r, "/login_spotify", http.StatusSeeOther)
		return
	}

	setFlash(w, "Spotify login successful!")
	http.Redirect(w, r, "/select_playlist", http.StatusSeeOther)
}
