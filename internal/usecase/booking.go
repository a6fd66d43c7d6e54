package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/servicemart/internal/domain/errors"
	"github.com/polkiloo/servicemart/internal/domain/model"
	"github.com/polkiloo/servicemart/internal/domain/taxonomy"
)

// BookingGateway is the remote side of the booking workflow.
type BookingGateway interface {
	Booking(ctx context.Context, id string) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, update model.StatusUpdate) (*model.Booking, error)
	Cancel(ctx context.Context, id string) error
}

var bookingTransitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingStatusPending:    {model.BookingStatusConfirmed, model.BookingStatusRejected, model.BookingStatusCancelled},
	model.BookingStatusConfirmed:  {model.BookingStatusInProgress, model.BookingStatusCancelled},
	model.BookingStatusInProgress: {model.BookingStatusCompleted},
}

// CanTransition reports whether the booking state machine has an edge from -> to.
func CanTransition(from, to model.BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BookingOptions tunes BookingLifecycle.
type BookingOptions struct {
	OTPWindow time.Duration
	TicketTTL time.Duration
	Now       func() time.Time
}

// CancelTicket is the first half of the double acknowledgement required to cancel.
type CancelTicket struct {
	ID        string    `json:"ticket"`
	BookingID string    `json:"bookingId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type bookingEntry struct {
	booking  *model.Booking
	phase    model.Phase
	err      string
	inFlight bool
}

// BookingLifecycle keeps the local view of bookings in step with the backend.
type BookingLifecycle struct {
	gateway BookingGateway
	logger  *slog.Logger
	opts    BookingOptions

	mu      sync.Mutex
	entries map[string]*bookingEntry
	tickets map[string]CancelTicket
}

// NewBookingLifecycle constructs BookingLifecycle.
func NewBookingLifecycle(gateway BookingGateway, logger *slog.Logger, opts BookingOptions) *BookingLifecycle {
	if opts.OTPWindow <= 0 {
		opts.OTPWindow = 24 * time.Hour
	}
	if opts.TicketTTL <= 0 {
		opts.TicketTTL = 2 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &BookingLifecycle{
		gateway: gateway,
		logger:  logger,
		opts:    opts,
		entries: make(map[string]*bookingEntry),
		tickets: make(map[string]CancelTicket),
	}
}

// Refresh loads the authoritative snapshot of a booking.
func (l *BookingLifecycle) Refresh(ctx context.Context, id string) (model.BookingView, error) {
	if strings.TrimSpace(id) == "" {
		return model.BookingView{}, domainErrors.Invalid("bookingId", "is required")
	}
	booking, err := l.gateway.Booking(ctx, id)
	if err != nil {
		return model.BookingView{}, err
	}
	if booking == nil {
		return model.BookingView{}, fmt.Errorf("booking %s: %w", id, domainErrors.ErrNotFound)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[id]
	switch {
	case !ok:
		l.entries[id] = &bookingEntry{booking: booking.Clone(), phase: model.PhaseConfirmed}
	case !entry.inFlight:
		entry.booking = booking.Clone()
		entry.phase = model.PhaseConfirmed
		entry.err = ""
	}
	return l.viewLocked(id), nil
}

// View returns the cached view of a booking.
func (l *BookingLifecycle) View(id string) (model.BookingView, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[id]; !ok {
		return model.BookingView{}, false
	}
	return l.viewLocked(id), true
}

// RequestConfirmation moves a pending booking to confirmed.
func (l *BookingLifecycle) RequestConfirmation(ctx context.Context, id, adminNotes string) (model.BookingView, error) {
	update := model.StatusUpdate{Status: model.BookingStatusConfirmed, AdminNotes: strings.TrimSpace(adminNotes)}
	return l.apply(ctx, id, update.Status, func(ctx context.Context) (*model.Booking, error) {
		return l.gateway.UpdateStatus(ctx, id, update)
	})
}

// RequestRejection moves a pending booking to rejected. A reason is mandatory.
func (l *BookingLifecycle) RequestRejection(ctx context.Context, id, reason, adminNotes string) (model.BookingView, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.BookingView{}, domainErrors.Invalid("rejectionReason", "is required")
	}
	update := model.StatusUpdate{
		Status:          model.BookingStatusRejected,
		RejectionReason: reason,
		AdminNotes:      strings.TrimSpace(adminNotes),
	}
	return l.apply(ctx, id, update.Status, func(ctx context.Context) (*model.Booking, error) {
		return l.gateway.UpdateStatus(ctx, id, update)
	})
}

// MarkComplete finishes a booking whose service has started.
func (l *BookingLifecycle) MarkComplete(ctx context.Context, id string) (model.BookingView, error) {
	update := model.StatusUpdate{Status: model.BookingStatusCompleted}
	return l.apply(ctx, id, update.Status, func(ctx context.Context) (*model.Booking, error) {
		return l.gateway.UpdateStatus(ctx, id, update)
	})
}

// RequestCancel checks that the booking may be cancelled and issues a ticket
// that must be passed back to ConfirmCancel.
func (l *BookingLifecycle) RequestCancel(ctx context.Context, id string) (CancelTicket, error) {
	if err := l.reload(ctx, id); err != nil {
		return CancelTicket{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.entries[id]
	if err := checkTransition(entry, model.BookingStatusCancelled); err != nil {
		return CancelTicket{}, err
	}

	now := l.opts.Now()
	for key, ticket := range l.tickets {
		if !now.Before(ticket.ExpiresAt) {
			delete(l.tickets, key)
		}
	}
	ticket := CancelTicket{ID: uuid.NewString(), BookingID: id, ExpiresAt: now.Add(l.opts.TicketTTL)}
	l.tickets[ticket.ID] = ticket
	return ticket, nil
}

// ConfirmCancel redeems a ticket issued for bookingID and cancels the booking.
func (l *BookingLifecycle) ConfirmCancel(ctx context.Context, bookingID, ticketID string) (model.BookingView, error) {
	l.mu.Lock()
	ticket, ok := l.tickets[ticketID]
	if ok && ticket.BookingID != bookingID {
		l.mu.Unlock()
		return model.BookingView{}, domainErrors.Invalid("ticket", "was issued for another booking")
	}
	delete(l.tickets, ticketID)
	l.mu.Unlock()

	if !ok {
		return model.BookingView{}, domainErrors.Invalid("ticket", "is unknown or already used")
	}
	if !l.opts.Now().Before(ticket.ExpiresAt) {
		return model.BookingView{}, domainErrors.Invalid("ticket", "has expired")
	}

	id := ticket.BookingID
	return l.apply(ctx, id, model.BookingStatusCancelled, func(ctx context.Context) (*model.Booking, error) {
		if err := l.gateway.Cancel(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// OTP describes how the service code of a booking should be displayed at now.
func (l *BookingLifecycle) OTP(id string, now time.Time) model.OTPDisplay {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[id]
	if !ok {
		return model.OTPDisplay{}
	}
	return otpDisplay(entry.booking, l.opts.OTPWindow, now)
}

func otpDisplay(b *model.Booking, window time.Duration, now time.Time) model.OTPDisplay {
	if b == nil || b.Status != model.BookingStatusConfirmed || b.ServiceOTP == nil || *b.ServiceOTP == "" {
		return model.OTPDisplay{}
	}
	display := model.OTPDisplay{Visible: true, Code: *b.ServiceOTP}
	if b.OTPGeneratedAt != nil {
		expires := b.OTPGeneratedAt.Add(window)
		display.ExpiresAt = &expires
		display.Expired = !now.Before(expires)
	}
	return display
}

// reload fetches the authoritative booking before a transition is checked, so
// edges taken on the server since the last read are not rejected locally.
func (l *BookingLifecycle) reload(ctx context.Context, id string) error {
	l.mu.Lock()
	entry, ok := l.entries[id]
	busy := ok && entry.inFlight
	l.mu.Unlock()
	if busy {
		return domainErrors.Conflict("booking %s already has an action in flight", id)
	}
	_, err := l.Refresh(ctx, id)
	return err
}

func checkTransition(entry *bookingEntry, to model.BookingStatus) error {
	if entry.inFlight {
		return domainErrors.Conflict("booking %s already has an action in flight", entry.booking.ID)
	}
	return transitionError(entry.booking.Status, to)
}

func transitionError(from, to model.BookingStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	if taxonomy.IsBookingTerminal(from) {
		return domainErrors.Conflict("booking is already %s", from)
	}
	return domainErrors.Conflict("booking cannot move from %s to %s", from, to)
}

// apply runs an action optimistically: the cached booking shows the target
// status until the call resolves, and the prior snapshot is restored on failure.
func (l *BookingLifecycle) apply(ctx context.Context, id string, to model.BookingStatus, call func(context.Context) (*model.Booking, error)) (model.BookingView, error) {
	if err := l.reload(ctx, id); err != nil {
		return model.BookingView{}, err
	}

	l.mu.Lock()
	entry := l.entries[id]
	if err := checkTransition(entry, to); err != nil {
		l.mu.Unlock()
		return model.BookingView{}, err
	}
	previous := entry.booking
	optimistic := previous.Clone()
	optimistic.Status = to
	entry.booking = optimistic
	entry.phase = model.PhaseOptimisticPending
	entry.err = ""
	entry.inFlight = true
	l.mu.Unlock()

	updated, err := call(ctx)
	if err == nil && updated == nil {
		updated, err = l.gateway.Booking(ctx, id)
		if err != nil {
			l.logger.Warn("reload booking after action failed",
				slog.String("booking", id),
				slog.String("error", err.Error()),
			)
			updated, err = optimistic, nil
		}
	}
	var current *model.Booking
	if err != nil {
		current = l.currentAfterRejection(ctx, id, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry.inFlight = false
	if err != nil {
		entry.booking = previous
		if current != nil {
			entry.booking = current.Clone()
			if stale := transitionError(current.Status, to); stale != nil {
				err = fmt.Errorf("%w: %s", stale, domainErrors.Message(err))
			}
		}
		entry.phase = model.PhaseRolledBack
		entry.err = domainErrors.Message(err)
		l.logger.Warn("booking action rolled back",
			slog.String("booking", id),
			slog.String("status", string(to)),
			slog.String("error", err.Error()),
		)
		return l.viewLocked(id), err
	}
	if updated != nil {
		entry.booking = updated.Clone()
	}
	entry.phase = model.PhaseConfirmed
	return l.viewLocked(id), nil
}

// currentAfterRejection re-reads a booking the server refused to move. It
// returns nil when the failure was transient or the read itself fails.
func (l *BookingLifecycle) currentAfterRejection(ctx context.Context, id string, cause error) *model.Booking {
	var remote *domainErrors.RemoteError
	if !errors.As(cause, &remote) || domainErrors.Retryable(cause) || ctx.Err() != nil {
		return nil
	}
	current, err := l.gateway.Booking(ctx, id)
	if err != nil || current == nil {
		return nil
	}
	return current
}

func (l *BookingLifecycle) viewLocked(id string) model.BookingView {
	entry := l.entries[id]
	view := model.BookingView{
		Booking: entry.booking.Clone(),
		Phase:   entry.phase,
		Error:   entry.err,
		OTP:     otpDisplay(entry.booking, l.opts.OTPWindow, l.opts.Now()),
	}
	if !entry.inFlight {
		view.Actions = availableActions(entry.booking.Status)
	}
	return view
}

func availableActions(status model.BookingStatus) []model.BookingAction {
	switch status {
	case model.BookingStatusPending:
		return []model.BookingAction{model.ActionConfirm, model.ActionReject, model.ActionCancel}
	case model.BookingStatusConfirmed:
		return []model.BookingAction{model.ActionCancel}
	case model.BookingStatusInProgress:
		return []model.BookingAction{model.ActionComplete}
	default:
		return nil
	}
}
