// Package identity resolves the authenticated session the sync engine
// acts on behalf of. An absent session is a normal state, not an error:
// every worker treats it as a successful no-op.
package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Session is an authenticated user session.
type Session struct {
	UserID           uuid.UUID
	Token            string
	AccountCreatedAt time.Time
}

// Provider yields the current session.
type Provider interface {
	// Current returns (nil, nil) when no user is authenticated.
	Current(ctx context.Context) (*Session, error)
}

// StaticProvider serves one fixed session, or none.
type StaticProvider struct {
	session *Session
}

// NewStaticProvider creates a provider for a fixed session. Pass nil
// for an unauthenticated provider.
func NewStaticProvider(session *Session) *StaticProvider {
	return &StaticProvider{session: session}
}

// Current returns the fixed session.
func (p *StaticProvider) Current(ctx context.Context) (*Session, error) {
	return p.session, nil
}

// TokenSource adapts a provider into an oauth2.TokenSource for the REST
// remote store client.
type TokenSource struct {
	provider Provider
}

// NewTokenSource creates a token source backed by a session provider.
func NewTokenSource(provider Provider) *TokenSource {
	return &TokenSource{provider: provider}
}

// Token returns the current bearer token.
func (s *TokenSource) Token() (*oauth2.Token, error) {
	session, err := s.provider.Current(context.Background())
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &oauth2.Token{}, nil
	}
	return &oauth2.Token{AccessToken: session.Token, TokenType: "Bearer"}, nil
}
