package model

// TargetKind tells whether a cart line references a product or a service.
type TargetKind string

const (
	TargetProduct TargetKind = "product"
	TargetService TargetKind = "service"
)

// CartLine is a server-side cart entry.
type CartLine struct {
	ID       string     `json:"id"`
	TargetID string     `json:"targetId"`
	Kind     TargetKind `json:"kind,omitempty"`
	Quantity int        `json:"quantity"`
}

// Cart is the authoritative cart snapshot.
type Cart struct {
	Items []CartLine `json:"items"`
}

// Line returns the line referencing targetID, if present.
func (c *Cart) Line(targetID string) (CartLine, bool) {
	if c == nil {
		return CartLine{}, false
	}
	for _, line := range c.Items {
		if line.TargetID == targetID {
			return line, true
		}
	}
	return CartLine{}, false
}

// CartTarget identifies what is being added to the cart.
type CartTarget struct {
	TargetID string
	Kind     TargetKind
	Quantity int
}

// LineView is the display state of a cart line.
type LineView struct {
	TargetID string
	LineID   string
	Quantity int
	Phase    Phase
	InFlight bool
	Error    string
}
