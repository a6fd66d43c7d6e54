package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/servicemart/internal/domain/model"
	"github.com/polkiloo/servicemart/internal/domain/taxonomy"
	"github.com/polkiloo/servicemart/internal/server/http/dto"
)

// BookingHandler manages booking endpoints.
type BookingHandler struct {
	facade BookingFacade
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(facade BookingFacade) *BookingHandler {
	return &BookingHandler{facade: facade}
}

// Get handles GET /api/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	view, err := h.facade.Booking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(view))
}

// Confirm handles POST /api/admin/bookings/:id/confirm.
func (h *BookingHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return
	}
	view, err := h.facade.ConfirmBooking(c.Request.Context(), c.Param("id"), req.AdminNotes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(view))
}

// Reject handles POST /api/admin/bookings/:id/reject.
func (h *BookingHandler) Reject(c *gin.Context) {
	var req dto.RejectBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	view, err := h.facade.RejectBooking(c.Request.Context(), c.Param("id"), req.Reason, req.AdminNotes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(view))
}

// Complete handles POST /api/admin/bookings/:id/complete.
func (h *BookingHandler) Complete(c *gin.Context) {
	view, err := h.facade.CompleteBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(view))
}

// RequestCancel handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) RequestCancel(c *gin.Context) {
	ticket, err := h.facade.RequestCancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.CancelTicketResponse{
		Ticket:    ticket.ID,
		BookingID: ticket.BookingID,
		ExpiresAt: ticket.ExpiresAt,
	})
}

// ConfirmCancel handles POST /api/bookings/:id/cancel/confirm.
func (h *BookingHandler) ConfirmCancel(c *gin.Context) {
	var req dto.ConfirmCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Ticket == "" {
		badRequest(c, "ticket is required")
		return
	}
	view, err := h.facade.ConfirmCancel(c.Request.Context(), c.Param("id"), req.Ticket)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(view))
}

func toBookingResponse(view model.BookingView) dto.BookingResponse {
	resp := dto.BookingResponse{
		Booking: view.Booking,
		Phase:   string(view.Phase),
		Error:   view.Error,
		Actions: make([]string, 0, len(view.Actions)),
	}
	for _, a := range view.Actions {
		resp.Actions = append(resp.Actions, string(a))
	}
	if view.Booking != nil {
		if display, ok := taxonomy.BookingDisplay(view.Booking.Status); ok {
			resp.Display = dto.StatusDisplay{Label: display.Label, Description: display.Description, Tone: string(display.Tone)}
		}
	}
	if view.OTP.Visible {
		resp.OTP = &dto.OTPResponse{Code: view.OTP.Code, ExpiresAt: view.OTP.ExpiresAt, Expired: view.OTP.Expired}
	}
	return resp
}
