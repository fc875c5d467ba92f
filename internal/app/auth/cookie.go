package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the browser cookie carrying the signed session reference.
const CookieName = "jukebox_session"

// sessionClaims wraps the opaque session token in a signed JWT so the
// cookie value cannot be forged or tampered with.
type sessionClaims struct {
	jwt.RegisteredClaims
	SessionToken string `json:"session_token"`
}

func (s *Service) signSessionToken(token string) (string, error) {
	claims := &sessionClaims{SessionToken: token}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

func (s *Service) parseSessionToken(cookieValue string) (string, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(cookieValue, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.SessionToken == "" {
		return "", errors.New("invalid session cookie")
	}
	return claims.SessionToken, nil
}
