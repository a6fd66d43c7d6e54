package model

import "time"

// BookingStatus describes the approval and execution lifecycle of a booking.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusRejected   BookingStatus = "rejected"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// Booking mirrors the booking record owned by the marketplace backend.
type Booking struct {
	ID               string        `json:"id"`
	Status           BookingStatus `json:"status"`
	ServiceOTP       *string       `json:"serviceOtp,omitempty"`
	OTPGeneratedAt   *time.Time    `json:"otpGeneratedAt,omitempty"`
	OTPVerifiedAt    *time.Time    `json:"otpVerifiedAt,omitempty"`
	ServiceStartedAt *time.Time    `json:"serviceStartedAt,omitempty"`
	ConfirmedAt      *time.Time    `json:"confirmedAt,omitempty"`
	CompletedAt      *time.Time    `json:"completedAt,omitempty"`
	CancelledAt      *time.Time    `json:"cancelledAt,omitempty"`
	RejectionReason  string        `json:"rejectionReason,omitempty"`
	AdminNotes       string        `json:"adminNotes,omitempty"`
	ProfessionalID   *string       `json:"professionalId,omitempty"`
}

// Clone returns a deep copy so cached snapshots are never shared with callers.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.ServiceOTP = cloneString(b.ServiceOTP)
	c.ProfessionalID = cloneString(b.ProfessionalID)
	c.OTPGeneratedAt = cloneTime(b.OTPGeneratedAt)
	c.OTPVerifiedAt = cloneTime(b.OTPVerifiedAt)
	c.ServiceStartedAt = cloneTime(b.ServiceStartedAt)
	c.ConfirmedAt = cloneTime(b.ConfirmedAt)
	c.CompletedAt = cloneTime(b.CompletedAt)
	c.CancelledAt = cloneTime(b.CancelledAt)
	return &c
}

// StatusUpdate is the admin payload of PATCH booking/{id}/status.
type StatusUpdate struct {
	Status          BookingStatus `json:"status"`
	AdminNotes      string        `json:"adminNotes,omitempty"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
}

// Phase tracks whether a locally displayed value is confirmed by the server.
type Phase string

const (
	PhaseConfirmed         Phase = "confirmed"
	PhaseOptimisticPending Phase = "optimistic-pending"
	PhaseRolledBack        Phase = "rolled-back"
)

// BookingView is the display model for a single booking.
type BookingView struct {
	Booking *Booking
	Phase   Phase
	Error   string
	Actions []BookingAction
	OTP     OTPDisplay
}

// BookingAction names a transition the current actor may request.
type BookingAction string

const (
	ActionConfirm  BookingAction = "confirm"
	ActionReject   BookingAction = "reject"
	ActionCancel   BookingAction = "cancel"
	ActionComplete BookingAction = "complete"
)

// OTPDisplay describes how the service OTP should be shown to the customer.
type OTPDisplay struct {
	Visible   bool
	Code      string
	ExpiresAt *time.Time
	Expired   bool
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
