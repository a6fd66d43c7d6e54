package model

import "time"

// DeliveryStatus is the raw status reported by the external courier provider.
type DeliveryStatus string

const (
	DeliveryStatusPendingAdminApproval DeliveryStatus = "pending_admin_approval"
	DeliveryStatusPriceCalculated      DeliveryStatus = "price_calculated"
	DeliveryStatusCreating             DeliveryStatus = "creating"
	DeliveryStatusNew                  DeliveryStatus = "new"
	DeliveryStatusAvailable            DeliveryStatus = "available"
	DeliveryStatusActive               DeliveryStatus = "active"
	DeliveryStatusCourierAssigned      DeliveryStatus = "courier_assigned"
	DeliveryStatusPickupArrived        DeliveryStatus = "pickup_arrived"
	DeliveryStatusPickedUp             DeliveryStatus = "picked_up"
	DeliveryStatusDelivering           DeliveryStatus = "delivering"
	DeliveryStatusDelivered            DeliveryStatus = "delivered"
	DeliveryStatusCancelled            DeliveryStatus = "cancelled"
	DeliveryStatusFailed               DeliveryStatus = "failed"
)

// Courier describes the person assigned to the delivery.
type Courier struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Photo string `json:"photo,omitempty"`
}

// DeliveryPricing holds provider quoted pricing.
type DeliveryPricing struct {
	Distance   float64 `json:"distance"`
	FinalPrice float64 `json:"finalPrice"`
}

// DeliveryRequest is the courier provider's record for an order.
type DeliveryRequest struct {
	Status                DeliveryStatus   `json:"status"`
	Courier               *Courier         `json:"courier,omitempty"`
	Pricing               *DeliveryPricing `json:"pricing,omitempty"`
	TrackingURL           *string          `json:"trackingUrl,omitempty"`
	EstimatedDeliveryTime *time.Time       `json:"estimatedDeliveryTime,omitempty"`
}

// StepState is the rendering state of a single progress step.
type StepState string

const (
	StepCompleted StepState = "completed"
	StepActive    StepState = "active"
	StepPending   StepState = "pending"
)

// ProgressStep pairs an ordered delivery status with its derived state.
type ProgressStep struct {
	Status DeliveryStatus
	Label  string
	State  StepState
}

// DeliveryPhase is a coarse classification of the latest snapshot.
type DeliveryPhase string

const (
	DeliveryPhaseUnassigned DeliveryPhase = "unassigned"
	DeliveryPhasePreflight  DeliveryPhase = "preflight"
	DeliveryPhaseInTransit  DeliveryPhase = "in_transit"
	DeliveryPhaseDelivered  DeliveryPhase = "delivered"
	DeliveryPhaseCancelled  DeliveryPhase = "cancelled"
	DeliveryPhaseFailed     DeliveryPhase = "failed"
)

// DeliverySnapshot is the derived view of the last known delivery state.
type DeliverySnapshot struct {
	OrderID   string
	Request   *DeliveryRequest
	Assigned  bool
	Phase     DeliveryPhase
	Steps     []ProgressStep
	FetchedAt time.Time
	Stale     bool
	LastError string
	Polling   bool
}
