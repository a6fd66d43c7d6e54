package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoCredentials is returned when a provider has nothing to offer.
var ErrNoCredentials = errors.New("no credentials configured")

// CredentialProvider supplies the bearer token attached to backend requests.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticCredentials returns a fixed token.
type StaticCredentials struct {
	token string
}

// NewStaticCredentials wraps a preissued token.
func NewStaticCredentials(token string) StaticCredentials {
	return StaticCredentials{token: token}
}

func (c StaticCredentials) Token(context.Context) (string, error) {
	if c.token == "" {
		return "", ErrNoCredentials
	}
	return c.token, nil
}

// SignedCredentials mints tokens for a single account and reuses them until
// they get close to expiry. Every minted token is parsed back before use so a
// misconfigured strategy fails locally instead of at the backend.
type SignedCredentials struct {
	strategy      Strategy
	subject       string
	refreshBefore time.Duration
	now           func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewSignedCredentials builds a provider minting tokens for subject.
func NewSignedCredentials(strategy Strategy, subject string, refreshBefore time.Duration, now func() time.Time) *SignedCredentials {
	if now == nil {
		now = time.Now
	}
	if refreshBefore <= 0 {
		refreshBefore = time.Minute
	}
	return &SignedCredentials{strategy: strategy, subject: subject, refreshBefore: refreshBefore, now: now}
}

func (c *SignedCredentials) Token(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Add(c.refreshBefore).Before(c.expires) {
		return c.token, nil
	}
	token, expires, err := c.strategy.IssueToken(c.subject)
	if err != nil {
		return "", err
	}
	subject, err := c.strategy.ParseToken(token)
	if err != nil {
		return "", fmt.Errorf("verify %s token: %w", c.strategy.Name(), err)
	}
	if subject != c.subject {
		return "", fmt.Errorf("verify %s token: subject %q does not match %q", c.strategy.Name(), subject, c.subject)
	}
	c.token, c.expires = token, expires
	return token, nil
}
