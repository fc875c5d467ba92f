// Package auth owns the session lifecycle: email/password registration
// and login, the three-legged Spotify authorization handshake, and
// handing out API clients backed by the session's token pair.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"jukebox/internal/logging"
	"jukebox/internal/spotify"
	"jukebox/internal/store"
)

const (
	minPasswordLength = 6
	sessionTTL        = 7 * 24 * time.Hour
)

var (
	// ErrEmailRequired signals a registration or login without an email.
	ErrEmailRequired = errors.New("email is required")
	// ErrPasswordTooShort signals a password under the minimum length.
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	// ErrPasswordMismatch signals the confirmation did not match.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrSpotifyNotLinked signals the session holds no Spotify token at all.
	ErrSpotifyNotLinked = errors.New("spotify account not linked")
	// ErrMissingCode signals the provider redirected back without a code.
	ErrMissingCode = errors.New("authorization code is missing")
	// ErrStateMismatch signals the callback state did not match the one issued.
	ErrStateMismatch = errors.New("authorization state mismatch")
)

// Store captures the persistence operations required by the auth service.
type Store interface {
	CreateUser(ctx context.Context, email, displayName, password string) (int64, error)
	ValidateCredentials(ctx context.Context, email, password string) (int64, error)
	LinkSpotifyIdentity(ctx context.Context, userID int64, identity store.SpotifyIdentity) (store.User, error)
	StartSession(ctx context.Context, userID int64, ttl time.Duration) (string, error)
	SessionByToken(ctx context.Context, token string) (*store.Session, error)
	SaveSpotifyToken(ctx context.Context, token, access, refresh string, expiry time.Time, scopes []string) error
	ClearSpotifyToken(ctx context.Context, token string) error
	SetOAuthState(ctx context.Context, token, state string) error
	SetSessionPlaylist(ctx context.Context, token, playlistID, playlistName string) error
	LastSelectedPlaylist(ctx context.Context, userID int64) (store.PlaylistSelection, error)
	DeleteSession(ctx context.Context, token string) error
}

// Service coordinates session and identity workflows.
type Service struct {
	store  Store
	oauth  *oauth2.Config
	secret []byte

	// fetchProfile is swapped out in tests.
	fetchProfile func(ctx context.Context, accessToken string) (*spotify.User, error)
}

// New wires a Service backed by the provided Store, OAuth configuration,
// and cookie-signing secret.
func New(st Store, oauth *oauth2.Config, secret []byte) *Service {
	return &Service{
		store:  st,
		oauth:  oauth,
		secret: secret,
		fetchProfile: func(ctx context.Context, accessToken string) (*spotify.User, error) {
			return spotify.NewClient(accessToken).CurrentUser(ctx)
		},
	}
}

// Register creates an account and opens a session for it. All local
// checks run before anything touches the store.
func (s *Service) Register(ctx context.Context, email, displayName, password, confirm string) (string, error) {
	if email == "" {
		return "", ErrEmailRequired
	}
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	if password != confirm {
		return "", ErrPasswordMismatch
	}

	userID, err := s.store.CreateUser(ctx, email, displayName, password)
	if err != nil {
		return "", err
	}

	return s.openSession(ctx, userID)
}

// Login validates credentials and opens a session.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", store.ErrInvalidCredentials
	}

	userID, err := s.store.ValidateCredentials(ctx, email, password)
	if err != nil {
		return "", err
	}

	return s.openSession(ctx, userID)
}

// openSession starts a session and restores the user's most recent
// playlist pick so a returning user lands straight on the jukebox.
func (s *Service) openSession(ctx context.Context, userID int64) (string, error) {
	token, err := s.store.StartSession(ctx, userID, sessionTTL)
	if err != nil {
		return "", err
	}

	sel, err := s.store.LastSelectedPlaylist(ctx, userID)
	switch {
	case err == nil:
		if err := s.store.SetSessionPlaylist(ctx, token, sel.PlaylistID, sel.Name); err != nil {
			logging.WithContext(ctx).Warn().Err(err).Msg("restore playlist selection")
		}
	case !errors.Is(err, store.ErrNoSelection):
		logging.WithContext(ctx).Warn().Err(err).Msg("load last playlist selection")
	}

	return s.signSessionToken(token)
}

// SessionFromCookie verifies the signed cookie and resolves the session
// it references.
func (s *Service) SessionFromCookie(ctx context.Context, cookieValue string) (*store.Session, error) {
	token, err := s.parseSessionToken(cookieValue)
	if err != nil {
		return nil, store.ErrUnauthorized
	}
	return s.store.SessionByToken(ctx, token)
}

// BeginSpotifyAuth stores a fresh state nonce on the session and returns
// the provider's authorization URL.
func (s *Service) BeginSpotifyAuth(ctx context.Context, sess *store.Session) (string, error) {
	state := uuid.NewString()
	if err := s.store.SetOAuthState(ctx, sess.Token, state); err != nil {
		return "", err
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// CompleteSpotifyAuth exchanges the authorization code, fetches the
// external profile, links it to the session's user, and persists the
// token pair. A profile without images yields a NULL image URL.
func (s *Service) CompleteSpotifyAuth(ctx context.Context, sess *store.Session, code, state string) error {
	if code == "" {
		return ErrMissingCode
	}
	if sess.OAuthState == "" || state != sess.OAuthState {
		return ErrStateMismatch
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	profile, err := s.fetchProfile(ctx, tok.AccessToken)
	if err != nil {
		return fmt.Errorf("fetch spotify profile: %w", err)
	}

	var imageURL *string
	if len(profile.Images) > 0 {
		imageURL = &profile.Images[0].URL
	}

	if _, err := s.store.LinkSpotifyIdentity(ctx, sess.UserID, store.SpotifyIdentity{
		SpotifyID:       profile.ID,
		DisplayName:     profile.DisplayName,
		ProfileImageURL: imageURL,
	}); err != nil {
		return err
	}

	if err := s.store.SaveSpotifyToken(ctx, sess.Token, tok.AccessToken, tok.RefreshToken, tok.Expiry, spotify.Scopes); err != nil {
		return err
	}

	sess.AccessToken = tok.AccessToken
	sess.RefreshToken = tok.RefreshToken
	sess.TokenExpiry = tok.Expiry
	sess.Scopes = spotify.Scopes
	return nil
}

// ActiveClient returns a client for the session's token pair. A still
// valid token is used as-is without touching the session. An expired
// token is refreshed once and the new pair persisted; if the refresh
// fails the stored token is cleared so the next request re-prompts.
func (s *Service) ActiveClient(ctx context.Context, sess *store.Session) (spotify.API, error) {
	if sess.AccessToken == "" {
		return nil, ErrSpotifyNotLinked
	}

	tok := &oauth2.Token{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		Expiry:       sess.TokenExpiry,
	}
	if tok.Valid() {
		return spotify.NewClient(tok.AccessToken), nil
	}

	fresh, err := s.oauth.TokenSource(ctx, tok).Token()
	if err != nil {
		logging.WithContext(ctx).Warn().Err(err).Msg("spotify token refresh failed, clearing stored token")
		if clearErr := s.store.ClearSpotifyToken(ctx, sess.Token); clearErr != nil {
			logging.WithContext(ctx).Error().Err(clearErr).Msg("clear spotify token")
		}
		return nil, spotify.ErrTokenExpired
	}

	if err := s.store.SaveSpotifyToken(ctx, sess.Token, fresh.AccessToken, fresh.RefreshToken, fresh.Expiry, sess.Scopes); err != nil {
		return nil, err
	}

	sess.AccessToken = fresh.AccessToken
	sess.RefreshToken = fresh.RefreshToken
	sess.TokenExpiry = fresh.Expiry
	return spotify.NewClient(fresh.AccessToken), nil
}

// ExpireSpotifyToken clears the stored token pair after an upstream call
// reported it expired, forcing a re-login on the next request.
func (s *Service) ExpireSpotifyToken(ctx context.Context, sess *store.Session) {
	if err := s.store.ClearSpotifyToken(ctx, sess.Token); err != nil {
		logging.WithContext(ctx).Error().Err(err).Msg("clear spotify token")
	}
	sess.AccessToken = ""
	sess.RefreshToken = ""
	sess.TokenExpiry = time.Time{}
}

// Logout removes the session row.
func (s *Service) Logout(ctx context.Context, sess *store.Session) error {
	return s.store.DeleteSession(ctx, sess.Token)
}
