package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/servicemart/internal/adapter/backend"
	"github.com/polkiloo/servicemart/internal/app"
	"github.com/polkiloo/servicemart/internal/config"
	"github.com/polkiloo/servicemart/internal/logger"
	"github.com/polkiloo/servicemart/internal/pkg/auth"
	"github.com/polkiloo/servicemart/internal/server/http/handlers"
	"github.com/polkiloo/servicemart/internal/server/http/router"
	"github.com/polkiloo/servicemart/internal/usecase"
	"github.com/polkiloo/servicemart/internal/worker"
)

// Module assembles the complete application graph. Extra options are
// appended last so callers can replace any component.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		backend.Module,
		fx.Provide(
			func(c *backend.HTTPClient) usecase.BookingGateway { return c },
			func(c *backend.HTTPClient) usecase.CartGateway { return c },
			func(c *backend.HTTPClient) usecase.OfferSource { return c },
			func(c *backend.HTTPClient) worker.DeliverySource { return c },
			func(f *app.CompanionFacade) handlers.CompanionFacade { return f },
		),
		usecase.Module,
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
