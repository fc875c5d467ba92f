package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Session is the server-side per-browser state keyed by the cookie token.
// It carries the Spotify token pair plus the playlist selection mirror.
type Session struct {
	Token        string
	UserID       int64
	UserName     string
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	Scopes       []string
	PlaylistID   string
	PlaylistName string
	OAuthState   string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// StartSession creates a session row for the user and returns its token.
func (s *Store) StartSession(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", fmt.Errorf("create token: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, time.Now().UTC().Add(ttl)); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return token, nil
}

// SessionByToken resolves a cookie token to its session, joining the
// owning user's display name. Missing or expired rows map to
// ErrUnauthorized.
func (s *Store) SessionByToken(ctx context.Context, token string) (*Session, error) {
	var (
		sess        Session
		tokenExpiry sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT s.token, s.user_id, u.display_name, s.access_token, s.refresh_token,
		       s.token_expiry, s.scopes, s.playlist_id, s.playlist_name, s.oauth_state,
		       s.created_at, s.expires_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1
	`, token).Scan(&sess.Token, &sess.UserID, &sess.UserName, &sess.AccessToken, &sess.RefreshToken,
		&tokenExpiry, pq.Array(&sess.Scopes), &sess.PlaylistID, &sess.PlaylistName, &sess.OAuthState,
		&sess.CreatedAt, &sess.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	if time.Now().After(sess.ExpiresAt) {
		return nil, ErrUnauthorized
	}

	if tokenExpiry.Valid {
		sess.TokenExpiry = tokenExpiry.Time
	}
	return &sess, nil
}

// SaveSpotifyToken persists a token pair onto the session.
func (s *Store) SaveSpotifyToken(ctx context.Context, token, access, refresh string, expiry time.Time, scopes []string) error {
	return s.execSession(ctx, `
		UPDATE sessions
		SET access_token = $2, refresh_token = $3, token_expiry = $4, scopes = $5
		WHERE token = $1
	`, token, access, refresh, expiry, pq.Array(scopes))
}

// ClearSpotifyToken drops the stored token pair so the next request
// re-prompts for Spotify login.
func (s *Store) ClearSpotifyToken(ctx context.Context, token string) error {
	return s.execSession(ctx, `
		UPDATE sessions
		SET access_token = '', refresh_token = '', token_expiry = NULL, scopes = '{}'
		WHERE token = $1
	`, token)
}

// SetOAuthState stores the state nonce for the in-flight authorization.
func (s *Store) SetOAuthState(ctx context.Context, token, state string) error {
	return s.execSession(ctx, `
		UPDATE sessions
		SET oauth_state = $2
		WHERE token = $1
	`, token, state)
}

// SetSessionPlaylist mirrors the selected playlist into the session.
func (s *Store) SetSessionPlaylist(ctx context.Context, token, playlistID, playlistName string) error {
	return s.execSession(ctx, `
		UPDATE sessions
		SET playlist_id = $2, playlist_name = $3
		WHERE token = $1
	`, token, playlistID, playlistName)
}

// DeleteSession removes the session row.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE token = $1
	`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) execSession(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUnauthorized
	}
	return nil
}
