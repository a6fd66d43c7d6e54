package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	domainErrors "github.com/polkiloo/servicemart/internal/domain/errors"
	"github.com/polkiloo/servicemart/internal/domain/model"
)

// Latest fetches GET delivery/status/{orderId}. A nil request without error
// means no delivery request exists for the order yet.
func (c *HTTPClient) Latest(ctx context.Context, orderID string) (*model.DeliveryRequest, error) {
	var request model.DeliveryRequest
	ok, err := c.do(ctx, http.MethodGet, c.endpoint(nil, "delivery", "status", orderID), nil, &request)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get delivery status %s: %w", orderID, err)
	}
	if !ok {
		return nil, nil
	}
	return &request, nil
}
