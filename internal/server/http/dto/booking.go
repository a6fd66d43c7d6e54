package dto

import (
	"time"

	"github.com/polkiloo/servicemart/internal/domain/model"
)

// ConfirmBookingRequest is the admin payload to confirm a booking.
type ConfirmBookingRequest struct {
	AdminNotes string `json:"adminNotes"`
}

// RejectBookingRequest is the admin payload to reject a booking.
type RejectBookingRequest struct {
	Reason     string `json:"reason"`
	AdminNotes string `json:"adminNotes"`
}

// ConfirmCancelRequest redeems a cancel ticket.
type ConfirmCancelRequest struct {
	Ticket string `json:"ticket"`
}

// StatusDisplay carries taxonomy metadata for rendering.
type StatusDisplay struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Tone        string `json:"tone,omitempty"`
}

// OTPResponse describes the service code as it should be shown.
type OTPResponse struct {
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Expired   bool       `json:"expired"`
}

// BookingResponse is the display model of a booking.
type BookingResponse struct {
	Booking *model.Booking `json:"booking"`
	Display StatusDisplay  `json:"display"`
	Phase   string         `json:"phase"`
	Error   string         `json:"error,omitempty"`
	Actions []string       `json:"actions"`
	OTP     *OTPResponse   `json:"otp,omitempty"`
}

// CancelTicketResponse is the first half of a cancellation.
type CancelTicketResponse struct {
	Ticket    string    `json:"ticket"`
	BookingID string    `json:"bookingId"`
	ExpiresAt time.Time `json:"expiresAt"`
}
