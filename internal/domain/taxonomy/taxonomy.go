// Package taxonomy holds the finite status sets shared by the booking and
// delivery state machines together with their display metadata.
package taxonomy

import "github.com/polkiloo/servicemart/internal/domain/model"

// Tone is a display hint for a status badge.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
)

// Display is the per-status metadata consumed by the display layer.
type Display struct {
	Label       string
	Description string
	Tone        Tone
}

var bookingDisplay = map[model.BookingStatus]Display{
	model.BookingStatusPending:    {Label: "Pending", Description: "Waiting for confirmation", Tone: ToneWarning},
	model.BookingStatusConfirmed:  {Label: "Confirmed", Description: "Share the OTP when the professional arrives", Tone: ToneInfo},
	model.BookingStatusRejected:   {Label: "Rejected", Description: "The booking could not be accepted", Tone: ToneDanger},
	model.BookingStatusInProgress: {Label: "In progress", Description: "Service has started", Tone: ToneInfo},
	model.BookingStatusCompleted:  {Label: "Completed", Description: "Service finished", Tone: ToneSuccess},
	model.BookingStatusCancelled:  {Label: "Cancelled", Description: "The booking was cancelled", Tone: ToneNeutral},
}

var bookingTerminal = map[model.BookingStatus]bool{
	model.BookingStatusRejected:  true,
	model.BookingStatusCompleted: true,
	model.BookingStatusCancelled: true,
}

var deliveryProgress = []model.DeliveryStatus{
	model.DeliveryStatusNew,
	model.DeliveryStatusAvailable,
	model.DeliveryStatusActive,
	model.DeliveryStatusCourierAssigned,
	model.DeliveryStatusPickupArrived,
	model.DeliveryStatusPickedUp,
	model.DeliveryStatusDelivering,
	model.DeliveryStatusDelivered,
}

var deliveryPreflight = map[model.DeliveryStatus]bool{
	model.DeliveryStatusPendingAdminApproval: true,
	model.DeliveryStatusPriceCalculated:      true,
	model.DeliveryStatusCreating:             true,
}

var deliveryTerminal = map[model.DeliveryStatus]bool{
	model.DeliveryStatusDelivered: true,
	model.DeliveryStatusCancelled: true,
	model.DeliveryStatusFailed:    true,
}

var deliveryDisplay = map[model.DeliveryStatus]Display{
	model.DeliveryStatusPendingAdminApproval: {Label: "Awaiting approval", Description: "Delivery is waiting for admin approval", Tone: ToneWarning},
	model.DeliveryStatusPriceCalculated:      {Label: "Price calculated", Description: "Delivery price has been calculated", Tone: ToneNeutral},
	model.DeliveryStatusCreating:             {Label: "Creating", Description: "Delivery request is being created", Tone: ToneNeutral},
	model.DeliveryStatusNew:                  {Label: "Order placed", Description: "Delivery request created", Tone: ToneInfo},
	model.DeliveryStatusAvailable:            {Label: "Searching", Description: "Looking for a courier", Tone: ToneInfo},
	model.DeliveryStatusActive:               {Label: "Active", Description: "Delivery is active", Tone: ToneInfo},
	model.DeliveryStatusCourierAssigned:      {Label: "Courier assigned", Description: "A courier accepted the delivery", Tone: ToneInfo},
	model.DeliveryStatusPickupArrived:        {Label: "At pickup", Description: "Courier arrived at the pickup point", Tone: ToneInfo},
	model.DeliveryStatusPickedUp:             {Label: "Picked up", Description: "Courier collected the order", Tone: ToneInfo},
	model.DeliveryStatusDelivering:           {Label: "On the way", Description: "Courier is heading to you", Tone: ToneInfo},
	model.DeliveryStatusDelivered:            {Label: "Delivered", Description: "Order delivered", Tone: ToneSuccess},
	model.DeliveryStatusCancelled:            {Label: "Cancelled", Description: "Delivery was cancelled", Tone: ToneNeutral},
	model.DeliveryStatusFailed:               {Label: "Failed", Description: "Delivery could not be completed", Tone: ToneDanger},
}

// BookingStatuses lists every booking status.
func BookingStatuses() []model.BookingStatus {
	return []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusConfirmed,
		model.BookingStatusRejected,
		model.BookingStatusInProgress,
		model.BookingStatusCompleted,
		model.BookingStatusCancelled,
	}
}

// IsBookingTerminal reports whether no transition may leave status.
func IsBookingTerminal(status model.BookingStatus) bool {
	return bookingTerminal[status]
}

// BookingDisplay returns display metadata for status.
func BookingDisplay(status model.BookingStatus) (Display, bool) {
	d, ok := bookingDisplay[status]
	return d, ok
}

// DeliveryProgressOrder returns the ordered progress statuses.
func DeliveryProgressOrder() []model.DeliveryStatus {
	out := make([]model.DeliveryStatus, len(deliveryProgress))
	copy(out, deliveryProgress)
	return out
}

// DeliveryIndex returns the progress position of status or -1.
func DeliveryIndex(status model.DeliveryStatus) int {
	for i, s := range deliveryProgress {
		if s == status {
			return i
		}
	}
	return -1
}

// IsDeliveryPreflight reports statuses rendered as a pre-flight message only.
func IsDeliveryPreflight(status model.DeliveryStatus) bool {
	return deliveryPreflight[status]
}

// IsDeliveryTerminal reports statuses after which the provider never changes the record.
func IsDeliveryTerminal(status model.DeliveryStatus) bool {
	return deliveryTerminal[status]
}

// DeliveryDisplay returns display metadata for status.
func DeliveryDisplay(status model.DeliveryStatus) (Display, bool) {
	d, ok := deliveryDisplay[status]
	return d, ok
}

// DeliveryStatuses lists all known delivery statuses.
func DeliveryStatuses() []model.DeliveryStatus {
	out := []model.DeliveryStatus{
		model.DeliveryStatusPendingAdminApproval,
		model.DeliveryStatusPriceCalculated,
		model.DeliveryStatusCreating,
	}
	out = append(out, deliveryProgress...)
	return append(out, model.DeliveryStatusCancelled, model.DeliveryStatusFailed)
}
