package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/polkiloo/servicemart/internal/domain/model"
)

// Booking fetches GET booking/{id}.
func (c *HTTPClient) Booking(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	ok, err := c.do(ctx, http.MethodGet, c.endpoint(nil, "booking", id), nil, &booking)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return &booking, nil
}

// UpdateStatus issues PATCH booking/{id}/status. The returned booking is nil
// when the backend acknowledged without a body.
func (c *HTTPClient) UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Booking, error) {
	var booking model.Booking
	ok, err := c.do(ctx, http.MethodPatch, c.endpoint(nil, "booking", id, "status"), update, &booking)
	if err != nil {
		return nil, fmt.Errorf("update booking %s status: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return &booking, nil
}

// Cancel issues PATCH booking/{id}/cancel.
func (c *HTTPClient) Cancel(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodPatch, c.endpoint(nil, "booking", id, "cancel"), nil, nil); err != nil {
		return fmt.Errorf("cancel booking %s: %w", id, err)
	}
	return nil
}
