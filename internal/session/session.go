package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")
	// ErrEmptyToken is returned when the backend answered a login without a token.
	ErrEmptyToken = errors.New("empty auth token")
)

const idBytes = 32

// Session is the explicit authentication context of one signed-in user.
// It is created at login and handed to everything that talks to the backend.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Username  string    `json:"username,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// New creates a session around a backend token. The token claims are read
// without verifying the signature; the backend owns issuance and validation.
// A token that is not a JWT is kept as an opaque bearer token.
func New(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}

	id, err := NewID()
	if err != nil {
		return nil, err
	}

	sess := &Session{ID: id, Token: token}

	claims := jwt.MapClaims{}
	if _, _, err = jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return sess, nil //nolint:nilerr // opaque tokens are valid bearer tokens
	}
	if name, ok := claims["username"].(string); ok {
		sess.Username = name
	}
	sess.ExpiresAt = expiry(claims["exp"])

	return sess, nil
}

// Expired reports whether the token is past its exp claim. Sessions without
// an exp claim never expire on the panel side.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TTL returns how long the session may be kept, capped by the token expiry.
func (s *Session) TTL(now time.Time, maxTTL time.Duration) time.Duration {
	if s.ExpiresAt.IsZero() {
		return maxTTL
	}
	left := s.ExpiresAt.Sub(now)
	if left < maxTTL {
		return left
	}
	return maxTTL
}

// NewID returns a random hex session identifier.
func NewID() (string, error) {
	buf := make([]byte, idBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func expiry(raw any) time.Time {
	switch exp := raw.(type) {
	case float64:
		return time.Unix(int64(exp), 0)
	case json.Number:
		if value, err := exp.Int64(); err == nil {
			return time.Unix(value, 0)
		}
	}
	return time.Time{}
}
