package handlers

import (
	"context"

	"github.com/polkiloo/servicemart/internal/domain/model"
	"github.com/polkiloo/servicemart/internal/usecase"
)

// BookingFacade describes booking operations exposed via HTTP.
type BookingFacade interface {
	Booking(ctx context.Context, id string) (model.BookingView, error)
	ConfirmBooking(ctx context.Context, id, adminNotes string) (model.BookingView, error)
	RejectBooking(ctx context.Context, id, reason, adminNotes string) (model.BookingView, error)
	CompleteBooking(ctx context.Context, id string) (model.BookingView, error)
	RequestCancel(ctx context.Context, id string) (usecase.CancelTicket, error)
	ConfirmCancel(ctx context.Context, id, ticket string) (model.BookingView, error)
}

// DeliveryFacade describes delivery tracking operations.
type DeliveryFacade interface {
	TrackDelivery(orderID string) error
	UntrackDelivery(orderID string)
	RefreshDelivery(ctx context.Context, orderID string) (model.DeliverySnapshot, error)
	Delivery(orderID string) (model.DeliverySnapshot, bool)
}

// CartFacade describes cart operations.
type CartFacade interface {
	Cart(ctx context.Context) ([]model.LineView, error)
	AddToCart(ctx context.Context, target model.CartTarget) (usecase.SetResult, error)
	SetQuantity(ctx context.Context, targetID string, quantity int) (usecase.SetResult, error)
}

// OfferFacade lists priced offers.
type OfferFacade interface {
	Offers(ctx context.Context, kind model.TargetKind) ([]model.Quote, error)
}

// CompanionFacade aggregates the full set of operations used across handlers.
type CompanionFacade interface {
	BookingFacade
	DeliveryFacade
	CartFacade
	OfferFacade
}
