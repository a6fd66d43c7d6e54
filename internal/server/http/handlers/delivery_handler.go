package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/servicemart/internal/domain/model"
	"github.com/polkiloo/servicemart/internal/domain/taxonomy"
	"github.com/polkiloo/servicemart/internal/server/http/dto"
)

// DeliveryHandler manages delivery tracking endpoints.
type DeliveryHandler struct {
	facade DeliveryFacade
}

// NewDeliveryHandler constructs DeliveryHandler.
func NewDeliveryHandler(facade DeliveryFacade) *DeliveryHandler {
	return &DeliveryHandler{facade: facade}
}

// Track handles PUT /api/deliveries/:orderId/tracking.
func (h *DeliveryHandler) Track(c *gin.Context) {
	orderID := c.Param("orderId")
	if err := h.facade.TrackDelivery(orderID); err != nil {
		writeError(c, err)
		return
	}
	snapshot, _ := h.facade.Delivery(orderID)
	c.JSON(http.StatusAccepted, toDeliveryResponse(snapshot))
}

// Untrack handles DELETE /api/deliveries/:orderId/tracking.
func (h *DeliveryHandler) Untrack(c *gin.Context) {
	h.facade.UntrackDelivery(c.Param("orderId"))
	c.Status(http.StatusNoContent)
}

// Refresh handles POST /api/deliveries/:orderId/refresh. A failed poll still
// returns the last snapshot with the error attached.
func (h *DeliveryHandler) Refresh(c *gin.Context) {
	orderID := c.Param("orderId")
	snapshot, err := h.facade.RefreshDelivery(c.Request.Context(), orderID)
	if err != nil {
		if _, ok := h.facade.Delivery(orderID); !ok || StatusFor(err) != http.StatusServiceUnavailable {
			writeError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, toDeliveryResponse(snapshot))
}

// Get handles GET /api/deliveries/:orderId.
func (h *DeliveryHandler) Get(c *gin.Context) {
	snapshot, ok := h.facade.Delivery(c.Param("orderId"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, dto.ErrorResponse{Error: "order is not tracked"})
		return
	}
	c.JSON(http.StatusOK, toDeliveryResponse(snapshot))
}

func toDeliveryResponse(s model.DeliverySnapshot) dto.DeliveryResponse {
	resp := dto.DeliveryResponse{
		OrderID:   s.OrderID,
		Assigned:  s.Assigned,
		Phase:     string(s.Phase),
		Steps:     make([]dto.ProgressStepResponse, 0, len(s.Steps)),
		Stale:     s.Stale,
		LastError: s.LastError,
		Polling:   s.Polling,
	}
	if !s.FetchedAt.IsZero() {
		fetched := s.FetchedAt
		resp.FetchedAt = &fetched
	}
	for _, step := range s.Steps {
		resp.Steps = append(resp.Steps, dto.ProgressStepResponse{
			Status: string(step.Status),
			Label:  step.Label,
			State:  string(step.State),
		})
	}
	if req := s.Request; req != nil {
		resp.Status = string(req.Status)
		resp.Courier = req.Courier
		resp.Pricing = req.Pricing
		resp.TrackingURL = req.TrackingURL
		resp.EstimatedDeliveryTime = req.EstimatedDeliveryTime
		if display, ok := taxonomy.DeliveryDisplay(req.Status); ok {
			resp.Display = &dto.StatusDisplay{Label: display.Label, Description: display.Description, Tone: string(display.Tone)}
		}
	}
	return resp
}
