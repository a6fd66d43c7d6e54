package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	domainErrors "github.com/polkiloo/servicemart/internal/domain/errors"
	"github.com/polkiloo/servicemart/internal/domain/model"
)

// GatewayCall records a remote call made through a stub.
type GatewayCall struct {
	Method   string
	ID       string
	Quantity int
	Update   model.StatusUpdate
}

// BookingGatewayStub keeps bookings in memory and applies status updates.
type BookingGatewayStub struct {
	mu        sync.Mutex
	Bookings  map[string]*model.Booking
	Calls     []GatewayCall
	GetErr    error
	UpdateErr error
	CancelErr error
	// Block, when set, holds UpdateStatus and Cancel until it is closed.
	Block   chan struct{}
	Started chan struct{}
	OTP     string
	Now     func() time.Time
}

// NewBookingGatewayStub seeds the stub with bookings.
func NewBookingGatewayStub(bookings ...*model.Booking) *BookingGatewayStub {
	s := &BookingGatewayStub{Bookings: make(map[string]*model.Booking), OTP: "123456"}
	for _, b := range bookings {
		s.Bookings[b.ID] = b.Clone()
	}
	return s
}

// Booking returns the stored booking.
func (s *BookingGatewayStub) Booking(ctx context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, GatewayCall{Method: "GET", ID: id})
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	if b, ok := s.Bookings[id]; ok {
		return b.Clone(), nil
	}
	return nil, &domainErrors.RemoteError{Kind: domainErrors.ErrNotFound, Message: "Booking not found"}
}

// UpdateStatus applies the update like the backend would.
func (s *BookingGatewayStub) UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Booking, error) {
	s.record(GatewayCall{Method: "PATCH status", ID: id, Update: update})
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return nil, s.UpdateErr
	}
	b, ok := s.Bookings[id]
	if !ok {
		return nil, &domainErrors.RemoteError{Kind: domainErrors.ErrNotFound, Message: "Booking not found"}
	}
	b.Status = update.Status
	b.AdminNotes = update.AdminNotes
	b.RejectionReason = update.RejectionReason
	now := s.now()
	switch update.Status {
	case model.BookingStatusConfirmed:
		otp := s.OTP
		b.ServiceOTP = &otp
		b.OTPGeneratedAt = &now
		b.ConfirmedAt = &now
	case model.BookingStatusCompleted:
		b.CompletedAt = &now
	}
	return b.Clone(), nil
}

// Cancel marks the booking cancelled.
func (s *BookingGatewayStub) Cancel(ctx context.Context, id string) error {
	s.record(GatewayCall{Method: "PATCH cancel", ID: id})
	if err := s.wait(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CancelErr != nil {
		return s.CancelErr
	}
	b, ok := s.Bookings[id]
	if !ok {
		return &domainErrors.RemoteError{Kind: domainErrors.ErrNotFound, Message: "Booking not found"}
	}
	now := s.now()
	b.Status = model.BookingStatusCancelled
	b.CancelledAt = &now
	return nil
}

// SetStatus moves a stored booking as if another client had acted on it.
func (s *BookingGatewayStub) SetStatus(id string, status model.BookingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.Bookings[id]; ok {
		b.Status = status
	}
}

// Mutations returns recorded non-GET calls.
func (s *BookingGatewayStub) Mutations() []GatewayCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []GatewayCall
	for _, c := range s.Calls {
		if c.Method != "GET" {
			out = append(out, c)
		}
	}
	return out
}

// Stored returns a copy of the stored booking.
func (s *BookingGatewayStub) Stored(id string) *model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Bookings[id].Clone()
}

func (s *BookingGatewayStub) record(call GatewayCall) {
	s.mu.Lock()
	s.Calls = append(s.Calls, call)
	s.mu.Unlock()
	if s.Started != nil {
		select {
		case s.Started <- struct{}{}:
		default:
		}
	}
}

func (s *BookingGatewayStub) wait(ctx context.Context) error {
	if s.Block == nil {
		return nil
	}
	select {
	case <-s.Block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *BookingGatewayStub) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CartGatewayStub is an in-memory cart that tracks concurrent mutations.
type CartGatewayStub struct {
	mu        sync.Mutex
	Items     []model.CartLine
	Calls     []GatewayCall
	CartErr   error
	MutateErr error
	// Block, when set, holds mutations until it is closed.
	Block   chan struct{}
	Started chan struct{}

	inFlight    int32
	maxInFlight int32
}

// NewCartGatewayStub seeds the cart.
func NewCartGatewayStub(items ...model.CartLine) *CartGatewayStub {
	return &CartGatewayStub{Items: append([]model.CartLine(nil), items...)}
}

// Cart returns a copy of the current cart.
func (s *CartGatewayStub) Cart(ctx context.Context) (*model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, GatewayCall{Method: "GET"})
	if s.CartErr != nil {
		return nil, s.CartErr
	}
	return &model.Cart{Items: append([]model.CartLine(nil), s.Items...)}, nil
}

// AddItem appends a line for the target.
func (s *CartGatewayStub) AddItem(ctx context.Context, target model.CartTarget) error {
	return s.mutate(ctx, GatewayCall{Method: "POST", ID: target.TargetID, Quantity: target.Quantity}, func() {
		s.Items = append(s.Items, model.CartLine{
			ID:       "line-" + target.TargetID,
			TargetID: target.TargetID,
			Kind:     target.Kind,
			Quantity: target.Quantity,
		})
	})
}

// UpdateLine sets the quantity of a line.
func (s *CartGatewayStub) UpdateLine(ctx context.Context, lineID string, quantity int) error {
	return s.mutate(ctx, GatewayCall{Method: "PATCH", ID: lineID, Quantity: quantity}, func() {
		for i := range s.Items {
			if s.Items[i].ID == lineID {
				s.Items[i].Quantity = quantity
			}
		}
	})
}

// DeleteLine removes a line.
func (s *CartGatewayStub) DeleteLine(ctx context.Context, lineID string) error {
	return s.mutate(ctx, GatewayCall{Method: "DELETE", ID: lineID}, func() {
		kept := s.Items[:0]
		for _, item := range s.Items {
			if item.ID != lineID {
				kept = append(kept, item)
			}
		}
		s.Items = kept
	})
}

// Remove drops a line as if another session deleted it.
func (s *CartGatewayStub) Remove(targetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.Items[:0]
	for _, item := range s.Items {
		if item.TargetID != targetID {
			kept = append(kept, item)
		}
	}
	s.Items = kept
}

// Mutations returns recorded non-GET calls.
func (s *CartGatewayStub) Mutations() []GatewayCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []GatewayCall
	for _, c := range s.Calls {
		if c.Method != "GET" {
			out = append(out, c)
		}
	}
	return out
}

// MaxInFlight reports the highest number of concurrent mutations observed.
func (s *CartGatewayStub) MaxInFlight() int {
	return int(atomic.LoadInt32(&s.maxInFlight))
}

func (s *CartGatewayStub) mutate(ctx context.Context, call GatewayCall, apply func()) error {
	current := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&s.maxInFlight)
		if current <= seen || atomic.CompareAndSwapInt32(&s.maxInFlight, seen, current) {
			break
		}
	}

	s.mu.Lock()
	s.Calls = append(s.Calls, call)
	s.mu.Unlock()
	if s.Started != nil {
		select {
		case s.Started <- struct{}{}:
		default:
		}
	}
	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.MutateErr != nil {
		return s.MutateErr
	}
	apply()
	return nil
}

// DeliverySourceStub serves delivery snapshots per order.
type DeliverySourceStub struct {
	mu       sync.Mutex
	Requests map[string]*model.DeliveryRequest
	Err      error
	// Block, when set, holds Latest until it is closed.
	Block chan struct{}
	calls int32
}

// NewDeliverySourceStub constructs an empty source.
func NewDeliverySourceStub() *DeliverySourceStub {
	return &DeliverySourceStub{Requests: make(map[string]*model.DeliveryRequest)}
}

// Latest returns the configured request of an order.
func (s *DeliverySourceStub) Latest(ctx context.Context, orderID string) (*model.DeliveryRequest, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	req, ok := s.Requests[orderID]
	if !ok || req == nil {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

// Set replaces the request served for an order.
func (s *DeliverySourceStub) Set(orderID string, status model.DeliveryStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests[orderID] = &model.DeliveryRequest{Status: status}
}

// Fail makes subsequent polls fail with err; nil restores success.
func (s *DeliverySourceStub) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

// Calls reports how many polls were served.
func (s *DeliverySourceStub) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

// OfferSourceStub serves fixed catalog items.
type OfferSourceStub struct {
	Items map[model.TargetKind][]model.PricedItem
	Err   error
}

// ActiveOffers returns items of the requested kind.
func (s OfferSourceStub) ActiveOffers(ctx context.Context, kind model.TargetKind) ([]model.PricedItem, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]model.PricedItem(nil), s.Items[kind]...), nil
}
