package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/polkiloo/servicemart/internal/domain/model"
)

type addItemRequest struct {
	TargetID string           `json:"targetId"`
	Kind     model.TargetKind `json:"kind"`
	Quantity int              `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// Cart fetches GET cart.
func (c *HTTPClient) Cart(ctx context.Context) (*model.Cart, error) {
	var cart model.Cart
	if _, err := c.do(ctx, http.MethodGet, c.endpoint(nil, "cart"), nil, &cart); err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &cart, nil
}

// AddItem issues POST cart.
func (c *HTTPClient) AddItem(ctx context.Context, target model.CartTarget) error {
	qty := target.Quantity
	if qty <= 0 {
		qty = 1
	}
	payload := addItemRequest{TargetID: target.TargetID, Kind: target.Kind, Quantity: qty}
	if _, err := c.do(ctx, http.MethodPost, c.endpoint(nil, "cart"), payload, nil); err != nil {
		return fmt.Errorf("add %s to cart: %w", target.TargetID, err)
	}
	return nil
}

// UpdateLine issues PATCH cart/{lineId}.
func (c *HTTPClient) UpdateLine(ctx context.Context, lineID string, quantity int) error {
	if _, err := c.do(ctx, http.MethodPatch, c.endpoint(nil, "cart", lineID), quantityRequest{Quantity: quantity}, nil); err != nil {
		return fmt.Errorf("update cart line %s: %w", lineID, err)
	}
	return nil
}

// DeleteLine issues DELETE cart/{lineId}.
func (c *HTTPClient) DeleteLine(ctx context.Context, lineID string) error {
	if _, err := c.do(ctx, http.MethodDelete, c.endpoint(nil, "cart", lineID), nil, nil); err != nil {
		return fmt.Errorf("delete cart line %s: %w", lineID, err)
	}
	return nil
}
