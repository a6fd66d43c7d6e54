package backend

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/servicemart/internal/config"
	"github.com/polkiloo/servicemart/internal/pkg/auth"
)

// Module exposes the backend client to the fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config      *config.Config
	Credentials auth.CredentialProvider
	Logger      *slog.Logger
}

func newClient(p clientParams) (*HTTPClient, error) {
	return NewHTTPClient(p.Config.BackendAddress, p.Credentials, p.Logger, Options{
		Timeout:   p.Config.BackendTimeout,
		RateLimit: p.Config.BackendRateLimit,
		Burst:     p.Config.BackendBurst,
	})
}
