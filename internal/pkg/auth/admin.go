package auth

import "errors"

// ErrAdminDenied is returned for a missing or wrong admin key.
var ErrAdminDenied = errors.New("admin key rejected")

// AdminVerifier checks admin keys against a stored hash.
type AdminVerifier struct {
	hasher PasswordHasher
	hash   string
}

// NewAdminVerifier builds a verifier. An empty hash disables admin access.
func NewAdminVerifier(hasher PasswordHasher, hash string) *AdminVerifier {
	return &AdminVerifier{hasher: hasher, hash: hash}
}

// Enabled reports whether an admin key hash is configured.
func (v *AdminVerifier) Enabled() bool {
	return v != nil && v.hash != ""
}

// Verify returns nil when key matches the configured hash.
func (v *AdminVerifier) Verify(key string) error {
	if !v.Enabled() || key == "" {
		return ErrAdminDenied
	}
	if err := v.hasher.Compare(v.hash, key); err != nil {
		return ErrAdminDenied
	}
	return nil
}
