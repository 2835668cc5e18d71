// README: Admin arbitration endpoints; invoice derivation follows acceptance.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"freta/internal/http/middleware"
	"freta/internal/modules/arbitration"
	"freta/internal/modules/invoice"
	"freta/internal/types"
)

type ArbitrationHandler struct {
	arbitration *arbitration.Service
	invoices    *invoice.Service
	log         zerolog.Logger
}

func NewArbitrationHandler(arb *arbitration.Service, invoices *invoice.Service, log zerolog.Logger) *ArbitrationHandler {
	return &ArbitrationHandler{arbitration: arb, invoices: invoices, log: log}
}

type arbitrateBody struct {
	OfferID string `json:"offer_id"`
}

func (h *ArbitrationHandler) Arbitrate(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var body arbitrateBody
	if err := c.ShouldBindJSON(&body); err != nil || body.OfferID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offer_id is required"})
		return
	}

	requestID := types.ID(c.Param("id"))
	assignment, err := h.arbitration.Arbitrate(c.Request.Context(), arbitration.ArbitrateCommand{
		RequestID: requestID,
		OfferID:   types.ID(body.OfferID),
		AdminID:   p.ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{"assignment": assignmentView(assignment)}
	// Billing follows acceptance. A derivation hiccup does not undo the
	// arbitration; Derive is idempotent and can be retried.
	if inv, derr := h.invoices.Derive(c.Request.Context(), requestID); derr != nil {
		h.log.Error().Err(derr).Str("request_id", string(requestID)).Msg("invoice derivation failed")
	} else {
		resp["invoice"] = invoiceView(inv)
	}
	c.JSON(http.StatusOK, resp)
}

// Reconcile retries the idempotent follow-up steps after a partial arbitration.
func (h *ArbitrationHandler) Reconcile(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	requestID := types.ID(c.Param("id"))
	assignment, err := h.arbitration.Reconcile(c.Request.Context(), requestID, p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"assignment": assignmentView(assignment)}
	if inv, derr := h.invoices.Derive(c.Request.Context(), requestID); derr != nil {
		h.log.Error().Err(derr).Str("request_id", string(requestID)).Msg("invoice derivation failed")
	} else {
		resp["invoice"] = invoiceView(inv)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ArbitrationHandler) GetAssignment(c *gin.Context) {
	a, err := h.arbitration.Assignment(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignmentView(a))
}
