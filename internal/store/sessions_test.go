package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStartSession(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta(`
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`)).
		WithArgs(sqlmock.AnyArg(), int64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token, err := s.StartSession(context.Background(), 7, time.Hour)
	if err != nil {
		t.Fatalf("StartSession error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func sessionRows(expiresAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"token", "user_id", "display_name", "access_token", "refresh_token",
		"token_expiry", "scopes", "playlist_id", "playlist_name", "oauth_state",
		"created_at", "expires_at",
	}).AddRow(
		"tok", int64(7), "Ana", "access", "refresh",
		time.Now().Add(time.Hour), "{playlist-read-private}", "p1", "Party Mix", "",
		time.Now(), expiresAt,
	)
}

func TestSessionByToken(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions s`)).
		WithArgs("tok").
		WillReturnRows(sessionRows(time.Now().Add(time.Hour)))

	sess, err := s.SessionByToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("SessionByToken error: %v", err)
	}
	if sess.UserID != 7 || sess.UserName != "Ana" {
		t.Fatalf("unexpected session user: %+v", sess)
	}
	if sess.PlaylistID != "p1" || sess.PlaylistName != "Party Mix" {
		t.Fatalf("unexpected session playlist: %+v", sess)
	}
	if len(sess.Scopes) != 1 || sess.Scopes[0] != "playlist-read-private" {
		t.Fatalf("unexpected scopes: %v", sess.Scopes)
	}
}

func TestSessionByTokenExpired(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions s`)).
		WithArgs("tok").
		WillReturnRows(sessionRows(time.Now().Add(-time.Minute)))

	if _, err := s.SessionByToken(context.Background(), "tok"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired session, got %v", err)
	}
}

func TestSessionByTokenMissing(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM sessions s`)).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"token"}))

	if _, err := s.SessionByToken(context.Background(), "nope"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown token, got %v", err)
	}
}

func TestSaveSpotifyToken(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta(`
		UPDATE sessions
		SET access_token = $2, refresh_token = $3, token_expiry = $4, scopes = $5
		WHERE token = $1
	`)).
		WithArgs("tok", "access", "refresh", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.SaveSpotifyToken(context.Background(), "tok", "access", "refresh",
		time.Now().Add(time.Hour), []string{"user-library-read"})
	if err != nil {
		t.Fatalf("SaveSpotifyToken error: %v", err)
	}
}

func TestSessionUpdateUnknownToken(t *testing.T) {
	s, mock, closeDB := newMockStore(t)
	defer closeDB()

	mock.ExpectExec(regexp.QuoteMeta(`SET playlist_id = $2, playlist_name = $3`)).
		WithArgs("nope", "p1", "Party Mix").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.SetSessionPlaylist(context.Background(), "nope", "p1", "Party Mix")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
