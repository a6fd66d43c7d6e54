package dto

// RemainingResponse describes how long an offer stays valid.
type RemainingResponse struct {
	Label    string `json:"label"`
	Hours    int    `json:"hours,omitempty"`
	Days     int    `json:"days,omitempty"`
	Expiring bool   `json:"expiring"`
	NoExpiry bool   `json:"noExpiry"`
}

// OfferResponse is a priced offer.
type OfferResponse struct {
	ItemID     string            `json:"itemId"`
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	BasePrice  int64             `json:"basePrice"`
	FinalPrice int64             `json:"finalPrice"`
	Savings    int64             `json:"savings"`
	Discount   int               `json:"discount"`
	Remaining  RemainingResponse `json:"remaining"`
}
