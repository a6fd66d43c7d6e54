package app

import (
	"context"
	"log/slog"

	domainErrors "github.com/polkiloo/servicemart/internal/domain/errors"
	"github.com/polkiloo/servicemart/internal/domain/model"
	"github.com/polkiloo/servicemart/internal/usecase"
	"github.com/polkiloo/servicemart/internal/worker"
)

// CompanionFacade is the single entry point the HTTP layer talks to.
type CompanionFacade struct {
	bookings   *usecase.BookingLifecycle
	deliveries *worker.DeliveryReconciler
	cart       *usecase.CartQuantityController
	offers     *usecase.OfferCatalog
	logger     *slog.Logger
}

func NewCompanionFacade(bookings *usecase.BookingLifecycle, deliveries *worker.DeliveryReconciler, cart *usecase.CartQuantityController, offers *usecase.OfferCatalog, logger *slog.Logger) *CompanionFacade {
	return &CompanionFacade{bookings: bookings, deliveries: deliveries, cart: cart, offers: offers, logger: logger}
}

// Booking refreshes a booking. When the backend is unreachable the cached
// view is served with the failure message attached.
func (f *CompanionFacade) Booking(ctx context.Context, id string) (model.BookingView, error) {
	view, err := f.bookings.Refresh(ctx, id)
	if err != nil && domainErrors.Retryable(err) {
		if cached, ok := f.bookings.View(id); ok {
			f.logger.Warn("serving cached booking", slog.String("booking", id), slog.String("error", err.Error()))
			cached.Error = domainErrors.Message(err)
			return cached, nil
		}
	}
	return view, err
}

func (f *CompanionFacade) ConfirmBooking(ctx context.Context, id, adminNotes string) (model.BookingView, error) {
	return f.bookings.RequestConfirmation(ctx, id, adminNotes)
}

func (f *CompanionFacade) RejectBooking(ctx context.Context, id, reason, adminNotes string) (model.BookingView, error) {
	return f.bookings.RequestRejection(ctx, id, reason, adminNotes)
}

func (f *CompanionFacade) CompleteBooking(ctx context.Context, id string) (model.BookingView, error) {
	return f.bookings.MarkComplete(ctx, id)
}

func (f *CompanionFacade) RequestCancel(ctx context.Context, id string) (usecase.CancelTicket, error) {
	return f.bookings.RequestCancel(ctx, id)
}

func (f *CompanionFacade) ConfirmCancel(ctx context.Context, id, ticket string) (model.BookingView, error) {
	return f.bookings.ConfirmCancel(ctx, id, ticket)
}

func (f *CompanionFacade) TrackDelivery(orderID string) error {
	return f.deliveries.Activate(orderID)
}

func (f *CompanionFacade) UntrackDelivery(orderID string) {
	f.deliveries.Deactivate(orderID)
}

func (f *CompanionFacade) RefreshDelivery(ctx context.Context, orderID string) (model.DeliverySnapshot, error) {
	return f.deliveries.Refresh(ctx, orderID)
}

func (f *CompanionFacade) Delivery(orderID string) (model.DeliverySnapshot, bool) {
	return f.deliveries.Snapshot(orderID)
}

func (f *CompanionFacade) Cart(ctx context.Context) ([]model.LineView, error) {
	return f.cart.Sync(ctx)
}

func (f *CompanionFacade) AddToCart(ctx context.Context, target model.CartTarget) (usecase.SetResult, error) {
	return f.cart.Add(ctx, target)
}

func (f *CompanionFacade) SetQuantity(ctx context.Context, targetID string, quantity int) (usecase.SetResult, error) {
	return f.cart.SetQuantity(ctx, targetID, quantity)
}

func (f *CompanionFacade) Offers(ctx context.Context, kind model.TargetKind) ([]model.Quote, error) {
	return f.offers.Quotes(ctx, kind)
}
