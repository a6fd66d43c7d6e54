package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/servicemart/internal/domain/errors"
	"github.com/polkiloo/servicemart/internal/domain/model"
	"github.com/polkiloo/servicemart/internal/pkg/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type recordedRequest struct {
	Method    string
	Path      string
	Query     string
	Auth      string
	RequestID string
	Body      string
}

type backendStub struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
	header   http.Header
}

func (s *backendStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, recordedRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     r.URL.RawQuery,
		Auth:      r.Header.Get("Authorization"),
		RequestID: r.Header.Get("X-Request-ID"),
		Body:      string(raw),
	})
	status, body, header := s.status, s.body, s.header
	s.mu.Unlock()

	for key, values := range header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (s *backendStub) last(t *testing.T) recordedRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		t.Fatal("expected a request to be recorded")
	}
	return s.requests[len(s.requests)-1]
}

func newStubClient(t *testing.T, stub *backendStub, creds auth.CredentialProvider) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	client, err := NewHTTPClient(srv.URL+"/api", creds, testLogger(), Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestNewHTTPClientValidatesURL(t *testing.T) {
	if _, err := NewHTTPClient("://bad-url", nil, testLogger(), Options{}); err == nil {
		t.Fatal("expected error for invalid url")
	}
	if _, err := NewHTTPClient("/relative", nil, testLogger(), Options{}); err == nil {
		t.Fatal("expected error for relative url")
	}
}

func TestRequestsCarryCredentialsAndRequestID(t *testing.T) {
	stub := &backendStub{body: `{"success":true,"data":{"id":"b1","status":"pending"}}`}
	client := newStubClient(t, stub, auth.NewStaticCredentials("secret"))

	booking, err := client.Booking(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking == nil || booking.Status != model.BookingStatusPending {
		t.Fatalf("unexpected booking %+v", booking)
	}
	req := stub.last(t)
	if req.Method != http.MethodGet || req.Path != "/api/booking/b1" {
		t.Fatalf("unexpected request %s %s", req.Method, req.Path)
	}
	if req.Auth != "Bearer secret" {
		t.Fatalf("expected bearer token, got %q", req.Auth)
	}
	if req.RequestID == "" {
		t.Fatal("expected request id header")
	}
}

func TestAnonymousRequestsOmitAuthorization(t *testing.T) {
	stub := &backendStub{body: `{"success":true,"data":{"items":[]}}`}
	client := newStubClient(t, stub, auth.NewStaticCredentials(""))

	if _, err := client.Cart(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stub.last(t).Auth; got != "" {
		t.Fatalf("expected no authorization header, got %q", got)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		header  http.Header
		wantErr error
		message string
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"success":false,"message":"Booking not found"}`, wantErr: domainErrors.ErrNotFound, message: "Booking not found"},
		{name: "conflict", status: http.StatusConflict, body: `{"success":false,"message":"already confirmed"}`, wantErr: domainErrors.ErrConflict, message: "already confirmed"},
		{name: "bad request", status: http.StatusBadRequest, body: `{"success":false,"message":"reason required"}`, wantErr: domainErrors.ErrInvalidArgument, message: "reason required"},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, body: `{"success":false}`, wantErr: domainErrors.ErrInvalidArgument},
		{name: "forbidden", status: http.StatusForbidden, body: `{"success":false,"message":"admin only"}`, wantErr: domainErrors.ErrRejected, message: "admin only"},
		{name: "success false on ok", status: http.StatusOK, body: `{"success":false,"message":"OTP not generated"}`, wantErr: domainErrors.ErrRejected, message: "OTP not generated"},
		{name: "server error", status: http.StatusBadGateway, body: `oops`, wantErr: domainErrors.ErrUnavailable},
		{name: "garbage body", status: http.StatusOK, body: `<html>`, wantErr: domainErrors.ErrUnavailable},
		{name: "too many requests", status: http.StatusTooManyRequests, header: http.Header{"Retry-After": []string{"7"}}, wantErr: domainErrors.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &backendStub{status: tt.status, body: tt.body, header: tt.header}
			client := newStubClient(t, stub, nil)

			_, err := client.Booking(context.Background(), "b1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.message != "" && domainErrors.Message(err) != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, domainErrors.Message(err))
			}
			if tt.status == http.StatusTooManyRequests {
				var tm TooManyRequestsError
				if !errors.As(err, &tm) {
					t.Fatalf("expected TooManyRequestsError, got %v", err)
				}
				if tm.RetryAfter != 7*time.Second {
					t.Fatalf("expected retry after 7s, got %v", tm.RetryAfter)
				}
			}
		})
	}
}

func TestServerErrorsAreLogged(t *testing.T) {
	var mu sync.Mutex
	logged := 0
	handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.LevelKey && a.Value.Any() == slog.LevelError {
			mu.Lock()
			logged++
			mu.Unlock()
		}
		return a
	}})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, nil, slog.New(handler), Options{})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if _, err := client.Cart(context.Background()); !errors.Is(err, domainErrors.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if logged != 1 {
		t.Fatalf("expected one error log, got %d", logged)
	}
}

func TestUpdateStatusSendsPayload(t *testing.T) {
	stub := &backendStub{body: `{"success":true,"data":{"id":"b1","status":"rejected","rejectionReason":"busy"}}`}
	client := newStubClient(t, stub, nil)

	booking, err := client.UpdateStatus(context.Background(), "b1", model.StatusUpdate{
		Status:          model.BookingStatusRejected,
		RejectionReason: "busy",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking == nil || booking.RejectionReason != "busy" {
		t.Fatalf("unexpected booking %+v", booking)
	}
	req := stub.last(t)
	if req.Method != http.MethodPatch || req.Path != "/api/booking/b1/status" {
		t.Fatalf("unexpected request %s %s", req.Method, req.Path)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		t.Fatalf("invalid payload: %v", err)
	}
	if payload["status"] != "rejected" || payload["rejectionReason"] != "busy" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestUpdateStatusWithoutData(t *testing.T) {
	stub := &backendStub{body: `{"success":true,"message":"updated"}`}
	client := newStubClient(t, stub, nil)

	booking, err := client.UpdateStatus(context.Background(), "b1", model.StatusUpdate{Status: model.BookingStatusConfirmed})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if booking != nil {
		t.Fatalf("expected nil booking, got %+v", booking)
	}
}

func TestCancelBooking(t *testing.T) {
	stub := &backendStub{body: `{"success":true}`}
	client := newStubClient(t, stub, nil)

	if err := client.Cancel(context.Background(), "b 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := stub.last(t)
	if req.Method != http.MethodPatch || req.Path != "/api/booking/b 1/cancel" {
		t.Fatalf("unexpected request %s %s", req.Method, req.Path)
	}
}

func TestLatestDelivery(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus model.DeliveryStatus
		wantNil    bool
	}{
		{name: "assigned", body: `{"success":true,"data":{"status":"picked_up","courier":{"name":"Asha","phone":"+100"}}}`, wantStatus: model.DeliveryStatusPickedUp},
		{name: "null data", body: `{"success":true,"data":null}`, wantNil: true},
		{name: "not found", status: http.StatusNotFound, body: `{"success":false,"message":"No delivery request"}`, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &backendStub{status: tt.status, body: tt.body}
			client := newStubClient(t, stub, nil)

			request, err := client.Latest(context.Background(), "o1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stub.last(t).Path != "/api/delivery/status/o1" {
				t.Fatalf("unexpected path %s", stub.last(t).Path)
			}
			if tt.wantNil {
				if request != nil {
					t.Fatalf("expected nil request, got %+v", request)
				}
				return
			}
			if request == nil || request.Status != tt.wantStatus {
				t.Fatalf("unexpected request %+v", request)
			}
			if request.Courier == nil || request.Courier.Name != "Asha" {
				t.Fatalf("expected courier, got %+v", request.Courier)
			}
		})
	}
}

func TestCartOperations(t *testing.T) {
	tests := []struct {
		name   string
		run    func(c *HTTPClient) error
		method string
		path   string
		body   string
	}{
		{
			name:   "add item defaults quantity",
			run:    func(c *HTTPClient) error { return c.AddItem(context.Background(), model.CartTarget{TargetID: "p1", Kind: model.TargetProduct}) },
			method: http.MethodPost,
			path:   "/api/cart",
			body:   `{"targetId":"p1","kind":"product","quantity":1}`,
		},
		{
			name:   "update line",
			run:    func(c *HTTPClient) error { return c.UpdateLine(context.Background(), "l1", 3) },
			method: http.MethodPatch,
			path:   "/api/cart/l1",
			body:   `{"quantity":3}`,
		},
		{
			name:   "delete line",
			run:    func(c *HTTPClient) error { return c.DeleteLine(context.Background(), "l1") },
			method: http.MethodDelete,
			path:   "/api/cart/l1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &backendStub{body: `{"success":true}`}
			client := newStubClient(t, stub, nil)

			if err := tt.run(client); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			req := stub.last(t)
			if req.Method != tt.method || req.Path != tt.path {
				t.Fatalf("unexpected request %s %s", req.Method, req.Path)
			}
			if strings.TrimSpace(req.Body) != tt.body {
				t.Fatalf("expected body %s, got %s", tt.body, req.Body)
			}
		})
	}
}

func TestCartDecodesItems(t *testing.T) {
	stub := &backendStub{body: `{"success":true,"data":{"items":[{"id":"l1","targetId":"p1","kind":"product","quantity":2}]}}`}
	client := newStubClient(t, stub, nil)

	cart, err := client.Cart(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	line, ok := cart.Line("p1")
	if !ok || line.ID != "l1" || line.Quantity != 2 {
		t.Fatalf("unexpected line %+v", line)
	}
}

func TestActiveOffers(t *testing.T) {
	stub := &backendStub{body: `{"success":true,"data":[{"id":"s1","name":"Haircut","price":1000,"offerActive":true,"offerDiscount":25}]}`}
	client := newStubClient(t, stub, nil)

	items, err := client.ActiveOffers(context.Background(), model.TargetService)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req := stub.last(t)
	if req.Path != "/api/services" || req.Query != "offerActive=true" {
		t.Fatalf("unexpected request %s?%s", req.Path, req.Query)
	}
	if len(items) != 1 || items[0].Kind != model.TargetService || items[0].Discount != 25 {
		t.Fatalf("unexpected items %+v", items)
	}

	if _, err := client.ActiveOffers(context.Background(), model.TargetKind("bundle")); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	stub := &backendStub{body: `{"success":true,"data":{"items":[]}}`}
	srv := httptest.NewServer(stub)
	defer srv.Close()

	client, err := NewHTTPClient(srv.URL, nil, testLogger(), Options{RateLimit: 0.001, Burst: 1})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	if _, err := client.Cart(context.Background()); err != nil {
		t.Fatalf("unexpected error on first request: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.Cart(ctx); !errors.Is(err, domainErrors.ErrUnavailable) {
		t.Fatalf("expected limiter to refuse, got %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	httpTime := time.Now().Add(2 * time.Second).UTC().Format(http.TimeFormat)
	cases := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{name: "empty", header: "", want: 5 * time.Second},
		{name: "seconds", header: "3", want: 3 * time.Second},
		{name: "garbage", header: "soon", want: 5 * time.Second},
		{name: "http date", header: httpTime},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseRetryAfter(tc.header)
			if tc.header == httpTime {
				if got <= 0 || got > 3*time.Second {
					t.Fatalf("unexpected retry duration %v", got)
				}
			} else if got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
