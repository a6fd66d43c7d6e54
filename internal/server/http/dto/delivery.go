package dto

import (
	"time"

	"github.com/polkiloo/servicemart/internal/domain/model"
)

// ProgressStepResponse is a single progress bar step.
type ProgressStepResponse struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	State  string `json:"state"`
}

// DeliveryResponse is the display model of a tracked delivery.
type DeliveryResponse struct {
	OrderID               string                 `json:"orderId"`
	Assigned              bool                   `json:"assigned"`
	Phase                 string                 `json:"phase"`
	Status                string                 `json:"status,omitempty"`
	Display               *StatusDisplay         `json:"display,omitempty"`
	Steps                 []ProgressStepResponse `json:"steps"`
	Courier               *model.Courier         `json:"courier,omitempty"`
	Pricing               *model.DeliveryPricing `json:"pricing,omitempty"`
	TrackingURL           *string                `json:"trackingUrl,omitempty"`
	EstimatedDeliveryTime *time.Time             `json:"estimatedDeliveryTime,omitempty"`
	FetchedAt             *time.Time             `json:"fetchedAt,omitempty"`
	Stale                 bool                   `json:"stale"`
	LastError             string                 `json:"lastError,omitempty"`
	Polling               bool                   `json:"polling"`
}
