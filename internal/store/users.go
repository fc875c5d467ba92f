package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a registered account, optionally linked to a Spotify identity.
type User struct {
	ID              int64
	Email           string
	DisplayName     string
	SpotifyID       string
	ProfileImageURL *string
	CreatedAt       time.Time
}

// SpotifyIdentity holds the profile fields carried over when a Spotify
// account is linked to a local user.
type SpotifyIdentity struct {
	SpotifyID       string
	DisplayName     string
	ProfileImageURL *string
}

// CreateUser registers a new account and returns its id.
func (s *Store) CreateUser(ctx context.Context, email, displayName, password string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return 0, fmt.Errorf("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	var userID int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, display_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id
	`, email, displayName, hash).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return userID, nil
}

// ValidateCredentials checks a login attempt and returns the user id.
func (s *Store) ValidateCredentials(ctx context.Context, email, password string) (int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var (
		userID int64
		hash   []byte
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash
		FROM users
		WHERE email = $1
	`, email).Scan(&userID, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn a compare so unknown emails cost the same as bad passwords.
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}

	return userID, nil
}

// UserByID fetches a user record.
func (s *Store) UserByID(ctx context.Context, id int64) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, COALESCE(spotify_id, ''), profile_image_url, created_at
		FROM users
		WHERE id = $1
	`, id))
}

// UserBySpotifyID fetches the user linked to the given Spotify identity.
func (s *Store) UserBySpotifyID(ctx context.Context, spotifyID string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, COALESCE(spotify_id, ''), profile_image_url, created_at
		FROM users
		WHERE spotify_id = $1
	`, spotifyID))
}

// LinkSpotifyIdentity binds a Spotify identity to a user and copies the
// external profile onto the record. The unique constraint on spotify_id
// turns a concurrent link of the same identity into a conflict error
// carrying the already-linked account's email; the requesting user's
// row is left untouched in that case.
func (s *Store) LinkSpotifyIdentity(ctx context.Context, userID int64, identity SpotifyIdentity) (User, error) {
	if identity.SpotifyID == "" {
		return User{}, fmt.Errorf("spotify id is required")
	}

	var user User
	err := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET spotify_id = $2, display_name = $3, profile_image_url = $4
		WHERE id = $1
		RETURNING id, email, display_name, COALESCE(spotify_id, ''), profile_image_url, created_at
	`, userID, identity.SpotifyID, identity.DisplayName, identity.ProfileImageURL).
		Scan(&user.ID, &user.Email, &user.DisplayName, &user.SpotifyID, &user.ProfileImageURL, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			owner, lookupErr := s.UserBySpotifyID(ctx, identity.SpotifyID)
			if lookupErr != nil {
				return User{}, fmt.Errorf("lookup conflicting user: %w", lookupErr)
			}
			return User{}, &SpotifyLinkConflictError{Email: owner.Email}
		}
		return User{}, fmt.Errorf("link spotify identity: %w", err)
	}

	return user, nil
}

func (s *Store) scanUser(row *sql.Row) (User, error) {
	var user User
	err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.SpotifyID, &user.ProfileImageURL, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}
