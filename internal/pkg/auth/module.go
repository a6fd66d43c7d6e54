package auth

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/servicemart/internal/config"
)

// Module provides credential and admin key primitives via fx.
var Module = fx.Options(
	fx.Provide(newPasswordHasher),
	fx.Provide(newCredentialProvider),
	fx.Provide(newAdminVerifier),
)

func newPasswordHasher() PasswordHasher {
	return NewBcryptHasher(0)
}

type credentialParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newCredentialProvider(p credentialParams) CredentialProvider {
	if p.Config.BackendSigningSecret != "" && p.Config.BackendAccountID != "" {
		p.Logger.Info("using signed backend credentials", slog.String("account", p.Config.BackendAccountID))
		strategy := NewHMACStrategy(p.Config.BackendSigningSecret, Options{TTL: p.Config.BackendTokenTTL})
		return NewSignedCredentials(strategy, p.Config.BackendAccountID, 0, nil)
	}
	if p.Config.BackendToken == "" {
		p.Logger.Warn("no backend credentials configured, requests are sent anonymously")
	}
	return NewStaticCredentials(p.Config.BackendToken)
}

type adminParams struct {
	fx.In

	Config *config.Config
	Hasher PasswordHasher
}

func newAdminVerifier(p adminParams) *AdminVerifier {
	return NewAdminVerifier(p.Hasher, p.Config.AdminKeyHash)
}
