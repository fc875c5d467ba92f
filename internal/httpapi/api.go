package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"jukebox/internal/app/queue"
	"jukebox/internal/store"
)

type setPlaylistRequest struct {
	PlaylistID string `json:"playlist_id"`
}

type addToQueueRequest struct {
	TrackURI    string `json:"track_uri"`
	TrackID     string `json:"track_id"`
	TrackName   string `json:"track_name"`
	TrackArtist string `json:"track_artist"`
}

type historyEntryView struct {
	TrackID     string    `json:"track_id"`
	TrackName   string    `json:"track_name"`
	TrackArtist string    `json:"track_artist"`
	PlaylistID  *string   `json:"playlist_id"`
	AddedAt     time.Time `json:"added_at"`
}

func (s *Server) handleUserPlaylists(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.apiError(w, r, nil, err)
		return
	}

	client, err := s.auth.ActiveClient(r.Context(), sess)
	if err != nil {
		s.apiError(w, r, sess, err)
		return
	}

	list, err := s.playlists.List(r.Context(), client)
	if err != nil {
		s.apiError(w, r, sess, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Playlists any `json:"playlists"`
	}{Playlists: list})
}

func (s *Server) handleSetPlaylist(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.apiError(w, r, nil, err)
		return
	}

	var req setPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	client, err := s.auth.ActiveClient(r.Context(), sess)
	if err != nil {
		s.apiError(w, r, sess, err)
		return
	}

	sel, err := s.playlists.Select(r.Context(), client, sess, req.PlaylistID)
	if err != nil {
		s.apiError(w, r, sess, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		PlaylistID   string `json:"playlist_id"`
		PlaylistName string `json:"playlist_name"`
	}{PlaylistID: sel.PlaylistID, PlaylistName: sel.Name})
}

func (s *Server) handlePlaylistTracks(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.apiError(w, r, nil, err)
		return
	}

	if sess.PlaylistID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no playlist selected"})
		return
	}

	client, err := s.auth.ActiveClient(r.Context(), sess)
	if err != nil {
		s.apiError(w, r, sess, err)
		return
	}

	tracks, err := s.queue.Tracks(r.Context(), client, sess.PlaylistID)
	if err != nil {
		s.apiError(w, r, sess, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Tracks []queue.TrackView `json:"tracks"`
	}{Tracks: tracks})
}

func (s *Server) handleAddToQueue(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.apiError(w, r, nil, err)
		return
	}

	var req addToQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return
	}

	client, err := s.auth.ActiveClient(r.Context(), sess)
	if err != nil {
		s.apiError(w, r, sess, err)
		return
	}

	err = s.queue.Enqueue(r.Context(), client, sess, queue.EnqueueRequest{
		TrackURI:    req.TrackURI,
		TrackID:     req.TrackID,
		TrackName:   req.TrackName,
		TrackArtist: req.TrackArtist,
	})
	if err != nil {
		s.apiError(w, r, sess, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
	}{Message: "track added to queue"})
}

func (s *Server) handleQueueHistory(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.apiError(w, r, nil, err)
		return
	}

	var entries []store.QueueHistoryEntry
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		days, convErr := strconv.Atoi(daysStr)
		if convErr != nil || days <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid days parameter"})
			return
		}
		entries, err = s.queue.Recent(r.Context(), sess.UserID, days)
	} else {
		entries, err = s.queue.History(r.Context(), sess.UserID, 50)
	}
	if err != nil {
		s.apiError(w, r, sess, err)
		return
	}

	views := make([]historyEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, historyEntryView{
			TrackID:     entry.TrackID,
			TrackName:   entry.TrackName,
			TrackArtist: entry.Artist,
			PlaylistID:  entry.PlaylistID,
			AddedAt:     entry.AddedAt,
		})
	}

	writeJSON(w, http.StatusOK, struct {
		History []historyEntryView `json:"history"`
	}{History: views})
}
