// README: Offer endpoints: partners bid, admins inspect.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"freta/internal/http/middleware"
	"freta/internal/modules/offer"
	"freta/internal/types"
)

type OfferHandler struct {
	offers *offer.Service
}

func NewOfferHandler(svc *offer.Service) *OfferHandler {
	return &OfferHandler{offers: svc}
}

type submitOfferBody struct {
	Price   float64 `json:"price"`
	Message string  `json:"message"`
}

func (h *OfferHandler) Submit(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var body submitOfferBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := h.offers.Submit(c.Request.Context(), offer.SubmitCommand{
		RequestID: types.ID(c.Param("id")),
		PartnerID: p.ID,
		Price:     decimal.NewFromFloat(body.Price).Round(2),
		Message:   body.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offerView(o))
}

// ListByRequest returns a request's offers, newest first.
func (h *OfferHandler) ListByRequest(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.offers.ListByRequest(c.Request.Context(), types.ID(c.Param("id")), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]gin.H, 0, len(list))
	for i := range list {
		views = append(views, offerView(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"offers": views})
}

// ListMine returns the calling partner's offers.
func (h *OfferHandler) ListMine(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	limit, offset := pagination(c)
	list, err := h.offers.ListByPartner(c.Request.Context(), p.ID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]gin.H, 0, len(list))
	for i := range list {
		views = append(views, offerView(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"offers": views})
}
