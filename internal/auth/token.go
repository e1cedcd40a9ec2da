package auth

import (
	"context"
	"sync"
	"time"

	"github.com/mcp-okta-support/okta-go/pkg/okta"
)

// TokenProvider supplies the credential attached to each request.
type TokenProvider interface {
	// Token returns a token valid for at least the provider's safety margin.
	Token(ctx context.Context) (okta.AccessToken, error)
	// Invalidate drops any cached token so the next Token call fetches a new one.
	Invalidate()
}

// TokenStore holds the cached token. Readers never block each other; the
// token is replaced as a whole, never mutated.
type TokenStore struct {
	mu    sync.RWMutex
	token okta.AccessToken
}

// NewTokenStore creates a new token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the cached token, or the zero token.
func (s *TokenStore) Get() okta.AccessToken {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the cached token.
func (s *TokenStore) Set(token okta.AccessToken) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear drops the cached token.
func (s *TokenStore) Clear() {
	s.Set(okta.AccessToken{})
}

// staticTokenProvider returns a fixed API token.
type staticTokenProvider struct {
	token okta.AccessToken
}

// NewStaticTokenProvider creates a provider for an SSWS API token. The token
// never expires.
func NewStaticTokenProvider(value string) TokenProvider {
	return &staticTokenProvider{
		token: okta.AccessToken{Value: value, Scheme: okta.SchemeSSWS},
	}
}

func (p *staticTokenProvider) Token(context.Context) (okta.AccessToken, error) {
	return p.token, nil
}

func (p *staticTokenProvider) Invalidate() {}

// New creates the provider matching cred.
func New(cred okta.Credential, opts ...Option) (TokenProvider, error) {
	switch c := cred.(type) {
	case okta.StaticToken:
		if c.Value == "" {
			return nil, okta.ErrCredentialsRequired
		}

		return NewStaticTokenProvider(c.Value), nil
	case *okta.StaticToken:
		if c == nil {
			return nil, okta.ErrCredentialsRequired
		}

		return New(*c, opts...)
	case okta.OAuthClientCredential:
		return NewOAuthProvider(c, opts...)
	case *okta.OAuthClientCredential:
		if c == nil {
			return nil, okta.ErrCredentialsRequired
		}

		return NewOAuthProvider(*c, opts...)
	default:
		return nil, okta.ErrUnsupportedCredential
	}
}

// expiryOf returns the absolute expiry of a token issued at now.
func expiryOf(expiry time.Time, now time.Time, fallback time.Duration) time.Time {
	if expiry.IsZero() {
		return now.Add(fallback)
	}

	return expiry
}
