package dto

// AddCartItemRequest adds a product or service to the cart.
type AddCartItemRequest struct {
	TargetID string `json:"targetId"`
	Kind     string `json:"kind"`
	Quantity int    `json:"quantity"`
}

// SetQuantityRequest changes the quantity of a cart line.
type SetQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// CartLineResponse is the display state of a cart line.
type CartLineResponse struct {
	TargetID string `json:"targetId"`
	LineID   string `json:"lineId,omitempty"`
	Quantity int    `json:"quantity"`
	Phase    string `json:"phase"`
	InFlight bool   `json:"inFlight"`
	Error    string `json:"error,omitempty"`
}

// CartMutationResponse reports the outcome of a cart change.
type CartMutationResponse struct {
	Line    CartLineResponse `json:"line"`
	Applied bool             `json:"applied"`
}
