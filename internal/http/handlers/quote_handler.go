// README: Quote endpoint: price a shipment without creating a request.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freta/internal/modules/pricing"
	"freta/internal/types"
)

type QuoteHandler struct {
	pricing *pricing.Service
}

func NewQuoteHandler(svc *pricing.Service) *QuoteHandler {
	return &QuoteHandler{pricing: svc}
}

type quoteRequest struct {
	PickupAddress   string  `json:"pickup_address"`
	DeliveryAddress string  `json:"delivery_address"`
	HeightCm        float64 `json:"height_cm"`
	WidthCm         float64 `json:"width_cm"`
	DepthCm         float64 `json:"depth_cm"`
	WeightKg        float64 `json:"weight_kg"`
}

func (h *QuoteHandler) Estimate(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	est, err := h.pricing.Estimate(c.Request.Context(),
		req.PickupAddress, req.DeliveryAddress,
		types.Dimensions{HeightCm: req.HeightCm, WidthCm: req.WidthCm, DepthCm: req.DepthCm},
		req.WeightKg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteView(est))
}
