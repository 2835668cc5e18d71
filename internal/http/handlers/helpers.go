// README: Shared JSON views and error-to-status mapping.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"freta/internal/geo"
	"freta/internal/modules/arbitration"
	"freta/internal/modules/invoice"
	"freta/internal/modules/offer"
	"freta/internal/modules/pricing"
	"freta/internal/modules/request"
	"freta/internal/modules/tracking"
)

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, request.ErrNotFound),
		errors.Is(err, offer.ErrNotFound),
		errors.Is(err, invoice.ErrNotFound),
		errors.Is(err, arbitration.ErrAssignmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, request.ErrBadRequest),
		errors.Is(err, pricing.ErrBadRequest),
		errors.Is(err, offer.ErrInvalidPrice),
		errors.Is(err, tracking.ErrUnknownLabel),
		errors.Is(err, invoice.ErrInvalidPaymentMove),
		errors.Is(err, invoice.ErrNotBillable):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, geo.ErrNoMatch), errors.Is(err, geo.ErrNoRoute):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, offer.ErrRequestNotOpen),
		errors.Is(err, request.ErrInvalidTransition),
		errors.Is(err, request.ErrConflict),
		errors.Is(err, arbitration.ErrOfferMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, tracking.ErrNotAssigned):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, arbitration.ErrReconcileNeeded):
		// Acceptance stands; the admin retries the follow-up via reconcile.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func requestView(r *request.TransportRequest) gin.H {
	v := gin.H{
		"id":               r.ID,
		"client_id":        r.ClientID,
		"pickup_address":   r.PickupAddress,
		"delivery_address": r.DeliveryAddress,
		"pickup_country":   r.PickupCountry,
		"delivery_country": r.DeliveryCountry,
		"height_cm":        r.Dims.HeightCm,
		"width_cm":         r.Dims.WidthCm,
		"depth_cm":         r.Dims.DepthCm,
		"weight_kg":        r.WeightKg,
		"volume_m3":        r.VolumeM3,
		"distance_km":      r.DistanceKm,
		"lane":             r.Lane,
		"estimated_price":  r.EstimatedPrice.String(),
		"status":           r.Status,
		"created_at":       r.CreatedAt,
	}
	if r.FinalPrice != nil {
		v["final_price"] = r.FinalPrice.String()
	}
	if r.SelectedOfferID != nil {
		v["selected_offer_id"] = *r.SelectedOfferID
	}
	return v
}

func offerView(o *offer.Offer) gin.H {
	return gin.H{
		"id":         o.ID,
		"request_id": o.RequestID,
		"partner_id": o.PartnerID,
		"price":      o.Price.String(),
		"message":    o.Message,
		"status":     o.Status,
		"created_at": o.CreatedAt,
	}
}

func assignmentView(a *arbitration.Assignment) gin.H {
	return gin.H{
		"id":         a.ID,
		"request_id": a.RequestID,
		"partner_id": a.PartnerID,
		"admin_id":   a.AdminID,
		"price":      a.Price.String(),
		"created_at": a.CreatedAt,
	}
}

func invoiceView(inv *invoice.Invoice) gin.H {
	v := gin.H{
		"id":             inv.ID,
		"request_id":     inv.RequestID,
		"client_id":      inv.ClientID,
		"partner_id":     inv.PartnerID,
		"amount":         inv.Amount.String(),
		"platform_fee":   inv.PlatformFee.String(),
		"partner_amount": inv.PartnerAmount.String(),
		"status":         inv.Status,
		"created_at":     inv.CreatedAt,
	}
	if inv.PaidAt != nil {
		v["paid_at"] = *inv.PaidAt
	}
	return v
}

func trackingView(u *tracking.Update) gin.H {
	return gin.H{
		"id":           u.ID,
		"request_id":   u.RequestID,
		"partner_id":   u.PartnerID,
		"status_label": u.StatusLabel,
		"note":         u.Note,
		"photo_refs":   u.PhotoRefs,
		"created_at":   u.CreatedAt,
	}
}

func quoteView(e *pricing.Estimate) gin.H {
	return gin.H{
		"distance_km": e.DistanceKm,
		"volume_m3":   e.VolumeM3,
		"price":       e.Price.String(),
		"lane":        e.Lane,
		"approx":      e.Approx,
		"note":        e.Note,
	}
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = intQuery(c, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset = intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
