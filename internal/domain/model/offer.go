package model

import "time"

// OfferDescriptor is attached to priced catalog entities.
type OfferDescriptor struct {
	Active    bool       `json:"offerActive"`
	Discount  int        `json:"offerDiscount"`
	StartDate *time.Time `json:"offerStartDate,omitempty"`
	EndDate   *time.Time `json:"offerEndDate,omitempty"`
}

// PricedItem is a product or service carrying a base price and an optional offer.
type PricedItem struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Kind  TargetKind `json:"kind"`
	Price int64      `json:"price"`
	OfferDescriptor
	OfferPrice *int64 `json:"offerPrice,omitempty"`
}

// Remaining describes how long an offer stays valid.
type Remaining struct {
	NoExpiry bool
	Expiring bool
	Hours    int
	Days     int
	Label    string
}

// Quote is the computed pricing of a priced item at a given moment.
type Quote struct {
	ItemID     string
	Name       string
	Kind       TargetKind
	BasePrice  int64
	FinalPrice int64
	Savings    int64
	Discount   int
	Valid      bool
	Remaining  Remaining
}
