// Package auth holds the viewer's bearer credential for the remote APIs.
package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"golang.org/x/oauth2"
	"vidwatch/domain/apperror"
)

// TokenStore keeps the current access token. JWT tokens expire with their
// exp claim; opaque tokens are trusted until cleared.
type TokenStore struct {
	mu    sync.RWMutex
	token *oauth2.Token
	now   func() time.Time
}

func NewTokenStore() *TokenStore {
	return &TokenStore{now: time.Now}
}

// Set replaces the held token. A blank value clears it.
func (s *TokenStore) Set(raw string) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		s.Clear()
		return
	}
	token := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if exp, ok := expiry(raw); ok {
		token.Expiry = exp
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *TokenStore) Clear() {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
}

// Token implements oauth2.TokenSource
func (s *TokenStore) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return nil, apperror.ErrUnauthenticated
	}
	if !s.token.Expiry.IsZero() && !s.now().Before(s.token.Expiry) {
		return nil, apperror.ErrUnauthenticated
	}
	t := *s.token
	return &t, nil
}

// Authenticated reports whether a usable token is held
func (s *TokenStore) Authenticated() bool {
	_, err := s.Token()
	return err == nil
}

// expiry reads the exp claim without verifying the signature; the server does that
func expiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(exp), 0), true
}
