// README: Invoice endpoints: lookup and payment-status callbacks.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freta/internal/modules/invoice"
	"freta/internal/types"
)

type InvoiceHandler struct {
	invoices *invoice.Service
}

func NewInvoiceHandler(svc *invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{invoices: svc}
}

func (h *InvoiceHandler) GetByRequest(c *gin.Context) {
	inv, err := h.invoices.GetByRequest(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoiceView(inv))
}

type paymentBody struct {
	Status string `json:"status"`
}

// SetPayment records a payment-gateway outcome: paid, refunded or cancelled.
func (h *InvoiceHandler) SetPayment(c *gin.Context) {
	var body paymentBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	inv, err := h.invoices.SetPaymentStatus(c.Request.Context(),
		types.ID(c.Param("id")), invoice.PaymentStatus(body.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoiceView(inv))
}
