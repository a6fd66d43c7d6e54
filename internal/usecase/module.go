package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/servicemart/internal/config"
)

// Module provides core lifecycle use cases to the fx container.
var Module = fx.Provide(
	newBookingLifecycle,
	newCartQuantityController,
	NewOfferCatalog,
)

type bookingParams struct {
	fx.In

	Gateway BookingGateway
	Config  *config.Config
	Logger  *slog.Logger
}

func newBookingLifecycle(p bookingParams) *BookingLifecycle {
	return NewBookingLifecycle(p.Gateway, p.Logger, BookingOptions{
		OTPWindow: p.Config.OTPDisplayWindow,
		TicketTTL: p.Config.CancelTicketTTL,
	})
}

type cartParams struct {
	fx.In

	Gateway CartGateway
	Config  *config.Config
	Logger  *slog.Logger
}

func newCartQuantityController(p cartParams) *CartQuantityController {
	return NewCartQuantityController(p.Gateway, p.Logger, p.Config.MutationTimeout)
}
