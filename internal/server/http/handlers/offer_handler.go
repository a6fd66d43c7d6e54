package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/servicemart/internal/server/http/dto"
	"github.com/polkiloo/servicemart/internal/usecase"
)

// OfferHandler lists active offers.
type OfferHandler struct {
	facade OfferFacade
}

// NewOfferHandler constructs OfferHandler.
func NewOfferHandler(facade OfferFacade) *OfferHandler {
	return &OfferHandler{facade: facade}
}

// List handles GET /api/offers?kind=products|services.
func (h *OfferHandler) List(c *gin.Context) {
	kind, err := usecase.ParseCatalogKind(c.DefaultQuery("kind", "products"))
	if err != nil {
		writeError(c, err)
		return
	}
	quotes, err := h.facade.Offers(c.Request.Context(), kind)
	if err != nil {
		writeError(c, err)
		return
	}
	response := make([]dto.OfferResponse, 0, len(quotes))
	for _, q := range quotes {
		response = append(response, dto.OfferResponse{
			ItemID:     q.ItemID,
			Name:       q.Name,
			Kind:       string(q.Kind),
			BasePrice:  q.BasePrice,
			FinalPrice: q.FinalPrice,
			Savings:    q.Savings,
			Discount:   q.Discount,
			Remaining: dto.RemainingResponse{
				Label:    q.Remaining.Label,
				Hours:    q.Remaining.Hours,
				Days:     q.Remaining.Days,
				Expiring: q.Remaining.Expiring,
				NoExpiry: q.Remaining.NoExpiry,
			},
		})
	}
	c.JSON(http.StatusOK, response)
}
