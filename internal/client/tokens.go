package client

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoTokenSource is returned when no token can be acquired
var ErrNoTokenSource = errors.New("no token source configured")

// RefreshFunc obtains a new token after the service rejected the current one
type RefreshFunc func(ctx context.Context) (*oauth2.Token, error)

// TokenManager holds the bearer token of the signed in session.
// Tokens come from an oauth2.TokenSource on demand; Refresh is only called
// after a 401.
type TokenManager struct {
	mu        sync.Mutex
	source    oauth2.TokenSource
	refresh   RefreshFunc
	token     *oauth2.Token
	onSignOut []func()
}

// NewTokenManager creates a manager. refresh may be nil, in which case a
// refresh asks source again.
func NewTokenManager(source oauth2.TokenSource, refresh RefreshFunc) *TokenManager {
	return &TokenManager{source: source, refresh: refresh}
}

// OnSignOut registers fn to run whenever the session is cleared
func (m *TokenManager) OnSignOut(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSignOut = append(m.onSignOut, fn)
}

// Token returns the cached access token, acquiring one when none is valid
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token.Valid() {
		return m.token.AccessToken, nil
	}
	if m.source == nil {
		return "", ErrNoTokenSource
	}
	tok, err := m.source.Token()
	if err != nil {
		return "", err
	}
	if !tok.Valid() {
		return "", errors.New("token source returned an empty or expired token")
	}
	m.token = tok
	return tok.AccessToken, nil
}

// Refresh replaces the cached token. It runs the refresh callback once and
// does not retry.
func (m *TokenManager) Refresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = nil

	var (
		tok *oauth2.Token
		err error
	)
	switch {
	case m.refresh != nil:
		tok, err = m.refresh(ctx)
	case m.source != nil:
		tok, err = m.source.Token()
	default:
		err = ErrNoTokenSource
	}
	if err != nil {
		return "", err
	}
	if !tok.Valid() {
		return "", errors.New("refresh returned an empty or expired token")
	}
	m.token = tok
	return tok.AccessToken, nil
}

// Clear drops the session and notifies the sign out listeners
func (m *TokenManager) Clear() {
	m.mu.Lock()
	m.token = nil
	hooks := append([]func(){}, m.onSignOut...)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}
