package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/servicemart/internal/domain/model"
	"github.com/polkiloo/servicemart/internal/server/http/dto"
	"github.com/polkiloo/servicemart/internal/usecase"
)

// CartHandler manages cart endpoints.
type CartHandler struct {
	facade CartFacade
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(facade CartFacade) *CartHandler {
	return &CartHandler{facade: facade}
}

// List handles GET /api/cart.
func (h *CartHandler) List(c *gin.Context) {
	lines, err := h.facade.Cart(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response := make([]dto.CartLineResponse, 0, len(lines))
	for _, l := range lines {
		response = append(response, toCartLineResponse(l))
	}
	c.JSON(http.StatusOK, response)
}

// Add handles POST /api/cart/items.
func (h *CartHandler) Add(c *gin.Context) {
	var req dto.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	kind, err := usecase.ParseCatalogKind(req.Kind)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.facade.AddToCart(c.Request.Context(), model.CartTarget{TargetID: req.TargetID, Kind: kind, Quantity: req.Quantity})
	writeMutation(c, res, err)
}

// SetQuantity handles PUT /api/cart/items/:targetId.
func (h *CartHandler) SetQuantity(c *gin.Context) {
	var req dto.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}
	res, err := h.facade.SetQuantity(c.Request.Context(), c.Param("targetId"), *req.Quantity)
	writeMutation(c, res, err)
}

func writeMutation(c *gin.Context, res usecase.SetResult, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if !res.Applied {
		status = http.StatusAccepted
	}
	c.JSON(status, dto.CartMutationResponse{Line: toCartLineResponse(res.View), Applied: res.Applied})
}

func toCartLineResponse(l model.LineView) dto.CartLineResponse {
	return dto.CartLineResponse{
		TargetID: l.TargetID,
		LineID:   l.LineID,
		Quantity: l.Quantity,
		Phase:    string(l.Phase),
		InFlight: l.InFlight,
		Error:    l.Error,
	}
}
