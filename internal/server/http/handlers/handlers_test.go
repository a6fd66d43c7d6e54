package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/servicemart/internal/domain/errors"
	"github.com/polkiloo/servicemart/internal/domain/model"
	"github.com/polkiloo/servicemart/internal/server/http/dto"
	"github.com/polkiloo/servicemart/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(t *testing.T, method, route, target string, handler gin.HandlerFunc, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, route, handler)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

type facadeStub struct {
	BookingFn       func(ctx context.Context, id string) (model.BookingView, error)
	ConfirmFn       func(ctx context.Context, id, notes string) (model.BookingView, error)
	RejectFn        func(ctx context.Context, id, reason, notes string) (model.BookingView, error)
	CompleteFn      func(ctx context.Context, id string) (model.BookingView, error)
	RequestCancelFn func(ctx context.Context, id string) (usecase.CancelTicket, error)
	ConfirmCancelFn func(ctx context.Context, id, ticket string) (model.BookingView, error)
	TrackFn         func(orderID string) error
	UntrackFn       func(orderID string)
	RefreshFn       func(ctx context.Context, orderID string) (model.DeliverySnapshot, error)
	DeliveryFn      func(orderID string) (model.DeliverySnapshot, bool)
	CartFn          func(ctx context.Context) ([]model.LineView, error)
	AddFn           func(ctx context.Context, target model.CartTarget) (usecase.SetResult, error)
	SetQuantityFn   func(ctx context.Context, targetID string, quantity int) (usecase.SetResult, error)
	OffersFn        func(ctx context.Context, kind model.TargetKind) ([]model.Quote, error)
}

var _ CompanionFacade = facadeStub{}

func (s facadeStub) Booking(ctx context.Context, id string) (model.BookingView, error) {
	return s.BookingFn(ctx, id)
}

func (s facadeStub) ConfirmBooking(ctx context.Context, id, notes string) (model.BookingView, error) {
	return s.ConfirmFn(ctx, id, notes)
}

func (s facadeStub) RejectBooking(ctx context.Context, id, reason, notes string) (model.BookingView, error) {
	return s.RejectFn(ctx, id, reason, notes)
}

func (s facadeStub) CompleteBooking(ctx context.Context, id string) (model.BookingView, error) {
	return s.CompleteFn(ctx, id)
}

func (s facadeStub) RequestCancel(ctx context.Context, id string) (usecase.CancelTicket, error) {
	return s.RequestCancelFn(ctx, id)
}

func (s facadeStub) ConfirmCancel(ctx context.Context, id, ticket string) (model.BookingView, error) {
	return s.ConfirmCancelFn(ctx, id, ticket)
}

func (s facadeStub) TrackDelivery(orderID string) error { return s.TrackFn(orderID) }

func (s facadeStub) UntrackDelivery(orderID string) { s.UntrackFn(orderID) }

func (s facadeStub) RefreshDelivery(ctx context.Context, orderID string) (model.DeliverySnapshot, error) {
	return s.RefreshFn(ctx, orderID)
}

func (s facadeStub) Delivery(orderID string) (model.DeliverySnapshot, bool) {
	return s.DeliveryFn(orderID)
}

func (s facadeStub) Cart(ctx context.Context) ([]model.LineView, error) { return s.CartFn(ctx) }

func (s facadeStub) AddToCart(ctx context.Context, target model.CartTarget) (usecase.SetResult, error) {
	return s.AddFn(ctx, target)
}

func (s facadeStub) SetQuantity(ctx context.Context, targetID string, quantity int) (usecase.SetResult, error) {
	return s.SetQuantityFn(ctx, targetID, quantity)
}

func (s facadeStub) Offers(ctx context.Context, kind model.TargetKind) ([]model.Quote, error) {
	return s.OffersFn(ctx, kind)
}

func confirmedView(id string) model.BookingView {
	code := "123456"
	expires := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	return model.BookingView{
		Booking: &model.Booking{ID: id, Status: model.BookingStatusConfirmed, ServiceOTP: &code},
		Phase:   model.PhaseConfirmed,
		Actions: []model.BookingAction{model.ActionCancel},
		OTP:     model.OTPDisplay{Visible: true, Code: code, ExpiresAt: &expires},
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domainErrors.Invalid("reason", "is required"), http.StatusUnprocessableEntity},
		{&domainErrors.RemoteError{Kind: domainErrors.ErrRejected, Message: "nope"}, http.StatusUnprocessableEntity},
		{domainErrors.Conflict("busy"), http.StatusConflict},
		{fmt.Errorf("wrap: %w", domainErrors.ErrNotFound), http.StatusNotFound},
		{domainErrors.ErrUnavailable, http.StatusServiceUnavailable},
		{domainErrors.ErrClosed, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestBookingHandlerGet(t *testing.T) {
	handler := NewBookingHandler(facadeStub{BookingFn: func(_ context.Context, id string) (model.BookingView, error) {
		return confirmedView(id), nil
	}})

	w := performRequest(t, http.MethodGet, "/bookings/:id", "/bookings/b-1", handler.Get, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[dto.BookingResponse](t, w)
	if resp.Booking == nil || resp.Booking.ID != "b-1" {
		t.Fatalf("unexpected booking %+v", resp.Booking)
	}
	if resp.Display.Label != "Confirmed" || resp.Display.Tone != "info" {
		t.Errorf("unexpected display %+v", resp.Display)
	}
	if resp.OTP == nil || resp.OTP.Code != "123456" {
		t.Errorf("expected visible otp, got %+v", resp.OTP)
	}
	if len(resp.Actions) != 1 || resp.Actions[0] != "cancel" {
		t.Errorf("unexpected actions %v", resp.Actions)
	}
}

func TestBookingHandlerHidesInvisibleOTP(t *testing.T) {
	handler := NewBookingHandler(facadeStub{BookingFn: func(_ context.Context, id string) (model.BookingView, error) {
		view := confirmedView(id)
		view.Booking.Status = model.BookingStatusInProgress
		view.OTP = model.OTPDisplay{}
		return view, nil
	}})

	w := performRequest(t, http.MethodGet, "/bookings/:id", "/bookings/b-1", handler.Get, nil)
	resp := decode[dto.BookingResponse](t, w)
	if resp.OTP != nil {
		t.Fatalf("otp must not be rendered, got %+v", resp.OTP)
	}
}

func TestBookingHandlerGetErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		msg  string
	}{
		{"not found", &domainErrors.RemoteError{Kind: domainErrors.ErrNotFound, Message: "Booking not found"}, http.StatusNotFound, "Booking not found"},
		{"unavailable", domainErrors.ErrUnavailable, http.StatusServiceUnavailable, "service unavailable"},
		{"internal", errors.New("secret detail"), http.StatusInternalServerError, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewBookingHandler(facadeStub{BookingFn: func(context.Context, string) (model.BookingView, error) {
				return model.BookingView{}, tt.err
			}})
			w := performRequest(t, http.MethodGet, "/bookings/:id", "/bookings/b-1", handler.Get, nil)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			if resp := decode[dto.ErrorResponse](t, w); resp.Error != tt.msg {
				t.Errorf("unexpected error message %q", resp.Error)
			}
		})
	}
}

func TestBookingHandlerConfirm(t *testing.T) {
	var gotNotes string
	handler := NewBookingHandler(facadeStub{ConfirmFn: func(_ context.Context, id, notes string) (model.BookingView, error) {
		gotNotes = notes
		return confirmedView(id), nil
	}})

	w := performRequest(t, http.MethodPost, "/bookings/:id/confirm", "/bookings/b-1/confirm", handler.Confirm, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("empty body must be accepted, got %d", w.Code)
	}

	body, _ := json.Marshal(dto.ConfirmBookingRequest{AdminNotes: "on time"})
	w = performRequest(t, http.MethodPost, "/bookings/:id/confirm", "/bookings/b-1/confirm", handler.Confirm, body)
	if w.Code != http.StatusOK || gotNotes != "on time" {
		t.Fatalf("expected notes to be forwarded, got %d %q", w.Code, gotNotes)
	}

	w = performRequest(t, http.MethodPost, "/bookings/:id/confirm", "/bookings/b-1/confirm", handler.Confirm, []byte("{"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
}

func TestBookingHandlerReject(t *testing.T) {
	handler := NewBookingHandler(facadeStub{RejectFn: func(_ context.Context, id, reason, _ string) (model.BookingView, error) {
		if reason == "" {
			return model.BookingView{}, domainErrors.Invalid("reason", "is required")
		}
		return model.BookingView{
			Booking: &model.Booking{ID: id, Status: model.BookingStatusRejected, RejectionReason: reason},
			Phase:   model.PhaseConfirmed,
		}, nil
	}})

	body, _ := json.Marshal(dto.RejectBookingRequest{})
	w := performRequest(t, http.MethodPost, "/bookings/:id/reject", "/bookings/b-1/reject", handler.Reject, body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing reason, got %d", w.Code)
	}

	body, _ = json.Marshal(dto.RejectBookingRequest{Reason: "fully booked"})
	w = performRequest(t, http.MethodPost, "/bookings/:id/reject", "/bookings/b-1/reject", handler.Reject, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[dto.BookingResponse](t, w)
	if resp.Booking.RejectionReason != "fully booked" || resp.Display.Tone != "danger" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestBookingHandlerCompleteConflict(t *testing.T) {
	handler := NewBookingHandler(facadeStub{CompleteFn: func(context.Context, string) (model.BookingView, error) {
		return model.BookingView{}, domainErrors.Conflict("booking is already %s", model.BookingStatusCompleted)
	}})

	w := performRequest(t, http.MethodPost, "/bookings/:id/complete", "/bookings/b-1/complete", handler.Complete, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestBookingHandlerCancelFlow(t *testing.T) {
	expires := time.Date(2026, 3, 1, 10, 2, 0, 0, time.UTC)
	var gotID, gotTicket string
	handler := NewBookingHandler(facadeStub{
		RequestCancelFn: func(_ context.Context, id string) (usecase.CancelTicket, error) {
			return usecase.CancelTicket{ID: "t-1", BookingID: id, ExpiresAt: expires}, nil
		},
		ConfirmCancelFn: func(_ context.Context, id, ticket string) (model.BookingView, error) {
			gotID, gotTicket = id, ticket
			return model.BookingView{Booking: &model.Booking{ID: id, Status: model.BookingStatusCancelled}}, nil
		},
	})

	w := performRequest(t, http.MethodPost, "/bookings/:id/cancel", "/bookings/b-1/cancel", handler.RequestCancel, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	ticket := decode[dto.CancelTicketResponse](t, w)
	if ticket.Ticket != "t-1" || ticket.BookingID != "b-1" || !ticket.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected ticket %+v", ticket)
	}

	w = performRequest(t, http.MethodPost, "/bookings/:id/cancel/confirm", "/bookings/b-1/cancel/confirm", handler.ConfirmCancel, []byte(`{}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without ticket, got %d", w.Code)
	}

	body, _ := json.Marshal(dto.ConfirmCancelRequest{Ticket: "t-1"})
	w = performRequest(t, http.MethodPost, "/bookings/:id/cancel/confirm", "/bookings/b-1/cancel/confirm", handler.ConfirmCancel, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotID != "b-1" || gotTicket != "t-1" {
		t.Errorf("unexpected facade arguments %q %q", gotID, gotTicket)
	}
}

func inTransitSnapshot(orderID string) model.DeliverySnapshot {
	return model.DeliverySnapshot{
		OrderID:  orderID,
		Request:  &model.DeliveryRequest{Status: model.DeliveryStatusPickedUp},
		Assigned: true,
		Phase:    model.DeliveryPhaseInTransit,
		Steps: []model.ProgressStep{
			{Status: model.DeliveryStatusNew, Label: "Order placed", State: model.StepCompleted},
			{Status: model.DeliveryStatusPickedUp, Label: "Picked up", State: model.StepActive},
		},
		FetchedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Polling:   true,
	}
}

func TestDeliveryHandlerTrackAndGet(t *testing.T) {
	tracked := map[string]bool{}
	handler := NewDeliveryHandler(facadeStub{
		TrackFn: func(orderID string) error {
			if orderID == " " {
				return domainErrors.Invalid("order id", "is required")
			}
			tracked[orderID] = true
			return nil
		},
		UntrackFn: func(orderID string) { delete(tracked, orderID) },
		DeliveryFn: func(orderID string) (model.DeliverySnapshot, bool) {
			if !tracked[orderID] {
				return model.DeliverySnapshot{}, false
			}
			return inTransitSnapshot(orderID), true
		},
	})

	w := performRequest(t, http.MethodGet, "/deliveries/:orderId", "/deliveries/o-1", handler.Get, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before tracking, got %d", w.Code)
	}

	w = performRequest(t, http.MethodPut, "/deliveries/:orderId/tracking", "/deliveries/o-1/tracking", handler.Track, nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	w = performRequest(t, http.MethodGet, "/deliveries/:orderId", "/deliveries/o-1", handler.Get, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[dto.DeliveryResponse](t, w)
	if resp.Status != "picked_up" || resp.Phase != "in_transit" || !resp.Assigned {
		t.Errorf("unexpected delivery %+v", resp)
	}
	if len(resp.Steps) != 2 || resp.Steps[1].State != "active" {
		t.Errorf("unexpected steps %+v", resp.Steps)
	}
	if resp.Display == nil || resp.Display.Label != "Picked up" {
		t.Errorf("unexpected display %+v", resp.Display)
	}
	if resp.FetchedAt == nil {
		t.Error("expected fetched at")
	}

	w = performRequest(t, http.MethodDelete, "/deliveries/:orderId/tracking", "/deliveries/o-1/tracking", handler.Untrack, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if tracked["o-1"] {
		t.Fatal("expected order to be untracked")
	}
}

func TestDeliveryHandlerUnassigned(t *testing.T) {
	handler := NewDeliveryHandler(facadeStub{DeliveryFn: func(orderID string) (model.DeliverySnapshot, bool) {
		return model.DeliverySnapshot{OrderID: orderID, Phase: model.DeliveryPhaseUnassigned}, true
	}})

	w := performRequest(t, http.MethodGet, "/deliveries/:orderId", "/deliveries/o-1", handler.Get, nil)
	resp := decode[dto.DeliveryResponse](t, w)
	if resp.Assigned || resp.Phase != "unassigned" || resp.Status != "" || resp.Display != nil {
		t.Fatalf("unexpected unassigned response %+v", resp)
	}
	if resp.Steps == nil {
		t.Error("steps must render as an empty list")
	}
}

func TestDeliveryHandlerRefresh(t *testing.T) {
	tests := []struct {
		name    string
		tracked bool
		err     error
		want    int
	}{
		{"fresh", true, nil, http.StatusOK},
		{"stale snapshot served", true, domainErrors.ErrUnavailable, http.StatusOK},
		{"untracked", false, fmt.Errorf("%w: order is not tracked", domainErrors.ErrNotFound), http.StatusNotFound},
		{"not tracked and unavailable", false, domainErrors.ErrUnavailable, http.StatusServiceUnavailable},
		{"tracked but rejected", true, &domainErrors.RemoteError{Kind: domainErrors.ErrRejected}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewDeliveryHandler(facadeStub{
				RefreshFn: func(_ context.Context, orderID string) (model.DeliverySnapshot, error) {
					snapshot := inTransitSnapshot(orderID)
					if tt.err != nil {
						snapshot.Stale = true
						snapshot.LastError = domainErrors.Message(tt.err)
					}
					return snapshot, tt.err
				},
				DeliveryFn: func(orderID string) (model.DeliverySnapshot, bool) {
					return inTransitSnapshot(orderID), tt.tracked
				},
			})
			w := performRequest(t, http.MethodPost, "/deliveries/:orderId/refresh", "/deliveries/o-1/refresh", handler.Refresh, nil)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			if tt.want == http.StatusOK && tt.err != nil {
				resp := decode[dto.DeliveryResponse](t, w)
				if !resp.Stale || resp.LastError == "" {
					t.Errorf("expected stale snapshot with error, got %+v", resp)
				}
			}
		})
	}
}

func TestCartHandlerList(t *testing.T) {
	handler := NewCartHandler(facadeStub{CartFn: func(context.Context) ([]model.LineView, error) {
		return []model.LineView{{TargetID: "p-1", LineID: "line-p-1", Quantity: 2, Phase: model.PhaseConfirmed}}, nil
	}})

	w := performRequest(t, http.MethodGet, "/cart", "/cart", handler.List, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	lines := decode[[]dto.CartLineResponse](t, w)
	if len(lines) != 1 || lines[0].Quantity != 2 || lines[0].Phase != "confirmed" {
		t.Fatalf("unexpected lines %+v", lines)
	}
}

func TestCartHandlerAdd(t *testing.T) {
	var got model.CartTarget
	handler := NewCartHandler(facadeStub{AddFn: func(_ context.Context, target model.CartTarget) (usecase.SetResult, error) {
		got = target
		return usecase.SetResult{View: model.LineView{TargetID: target.TargetID, Quantity: 1, Phase: model.PhaseConfirmed}, Applied: true}, nil
	}})

	body, _ := json.Marshal(dto.AddCartItemRequest{TargetID: "s-1", Kind: "Services"})
	w := performRequest(t, http.MethodPost, "/cart/items", "/cart/items", handler.Add, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.TargetID != "s-1" || got.Kind != model.TargetService {
		t.Errorf("unexpected target %+v", got)
	}
	if resp := decode[dto.CartMutationResponse](t, w); !resp.Applied || resp.Line.TargetID != "s-1" {
		t.Errorf("unexpected response %+v", resp)
	}

	body, _ = json.Marshal(dto.AddCartItemRequest{TargetID: "x", Kind: "vehicle"})
	w = performRequest(t, http.MethodPost, "/cart/items", "/cart/items", handler.Add, body)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown kind, got %d", w.Code)
	}
}

func TestCartHandlerSetQuantity(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		result usecase.SetResult
		err    error
		want   int
	}{
		{"applied", `{"quantity":3}`, usecase.SetResult{View: model.LineView{TargetID: "p-1", Quantity: 3}, Applied: true}, nil, http.StatusOK},
		{"ignored while in flight", `{"quantity":3}`, usecase.SetResult{View: model.LineView{TargetID: "p-1", Quantity: 2, InFlight: true}}, nil, http.StatusAccepted},
		{"missing quantity", `{}`, usecase.SetResult{}, nil, http.StatusBadRequest},
		{"rolled back", `{"quantity":9}`, usecase.SetResult{}, &domainErrors.RemoteError{Kind: domainErrors.ErrRejected, Message: "Out of stock"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCartHandler(facadeStub{SetQuantityFn: func(_ context.Context, targetID string, quantity int) (usecase.SetResult, error) {
				if targetID != "p-1" {
					t.Fatalf("unexpected target %q", targetID)
				}
				return tt.result, tt.err
			}})
			w := performRequest(t, http.MethodPut, "/cart/items/:targetId", "/cart/items/p-1", handler.SetQuantity, []byte(tt.body))
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestOfferHandlerList(t *testing.T) {
	var gotKind model.TargetKind
	handler := NewOfferHandler(facadeStub{OffersFn: func(_ context.Context, kind model.TargetKind) ([]model.Quote, error) {
		gotKind = kind
		return []model.Quote{{
			ItemID: "p-1", Name: "Shampoo", Kind: kind,
			BasePrice: 1000, FinalPrice: 800, Savings: 200, Discount: 20, Valid: true,
			Remaining: model.Remaining{Days: 3, Label: "3 days left"},
		}}, nil
	}})

	w := performRequest(t, http.MethodGet, "/offers", "/offers", handler.List, nil)
	if w.Code != http.StatusOK || gotKind != model.TargetProduct {
		t.Fatalf("expected products by default, got %d %q", w.Code, gotKind)
	}
	offers := decode[[]dto.OfferResponse](t, w)
	if len(offers) != 1 || offers[0].Savings != 200 || offers[0].Remaining.Label != "3 days left" {
		t.Fatalf("unexpected offers %+v", offers)
	}

	w = performRequest(t, http.MethodGet, "/offers", "/offers?kind=services", handler.List, nil)
	if w.Code != http.StatusOK || gotKind != model.TargetService {
		t.Fatalf("expected services, got %d %q", w.Code, gotKind)
	}

	w = performRequest(t, http.MethodGet, "/offers", "/offers?kind=bikes", handler.List, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown kind, got %d", w.Code)
	}
}
