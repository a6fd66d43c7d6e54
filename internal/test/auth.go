package test

import (
	"context"
	"errors"

	pkgAuth "github.com/polkiloo/servicemart/internal/pkg/auth"
)

// HasherStub provides deterministic hashing for tests.
type HasherStub struct {
	HashFn    func(string) (string, error)
	CompareFn func(string, string) error
}

// Hash returns a predictable hash for the supplied secret.
func (h HasherStub) Hash(secret string) (string, error) {
	if h.HashFn != nil {
		return h.HashFn(secret)
	}
	return "hash:" + secret, nil
}

// Compare validates secret against stored hash.
func (h HasherStub) Compare(hash string, secret string) error {
	if h.CompareFn != nil {
		return h.CompareFn(hash, secret)
	}
	if hash != "hash:"+secret {
		return errors.New("mismatch")
	}
	return nil
}

// CredentialsStub hands out a fixed token or error.
type CredentialsStub struct {
	Value string
	Err   error
}

// Token returns the configured token.
func (s CredentialsStub) Token(context.Context) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if s.Value == "" {
		return "", pkgAuth.ErrNoCredentials
	}
	return s.Value, nil
}

var _ pkgAuth.PasswordHasher = HasherStub{}
var _ pkgAuth.CredentialProvider = CredentialsStub{}
