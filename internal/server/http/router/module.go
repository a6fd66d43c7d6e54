package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/servicemart/internal/pkg/auth"
	"github.com/polkiloo/servicemart/internal/server/http/middleware"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Options(
	fx.Provide(Setup),
	fx.Provide(func(v *auth.AdminVerifier) middleware.AdminKeyVerifier { return v }),
)
