// README: Transport request endpoints for clients (create, view, cancel).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freta/internal/auth"
	"freta/internal/http/middleware"
	"freta/internal/modules/pricing"
	"freta/internal/modules/request"
	"freta/internal/types"
)

type RequestHandler struct {
	pricing  *pricing.Service
	requests *request.Service
}

func NewRequestHandler(pricingSvc *pricing.Service, requestSvc *request.Service) *RequestHandler {
	return &RequestHandler{pricing: pricingSvc, requests: requestSvc}
}

type createRequestBody struct {
	PickupAddress   string  `json:"pickup_address"`
	DeliveryAddress string  `json:"delivery_address"`
	HeightCm        float64 `json:"height_cm"`
	WidthCm         float64 `json:"width_cm"`
	DepthCm         float64 `json:"depth_cm"`
	WeightKg        float64 `json:"weight_kg"`
}

// Create prices the shipment and opens the request in pending.
func (h *RequestHandler) Create(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var body createRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	dims := types.Dimensions{HeightCm: body.HeightCm, WidthCm: body.WidthCm, DepthCm: body.DepthCm}
	est, err := h.pricing.Estimate(c.Request.Context(), body.PickupAddress, body.DeliveryAddress, dims, body.WeightKg)
	if err != nil {
		respondError(c, err)
		return
	}

	id, err := h.requests.Create(c.Request.Context(), request.CreateCommand{
		ClientID:        p.ID,
		PickupAddress:   body.PickupAddress,
		DeliveryAddress: body.DeliveryAddress,
		Pickup:          &est.Pickup.Point,
		Delivery:        &est.Destination.Point,
		PickupCountry:   est.Pickup.CountryCode,
		DeliveryCountry: est.Destination.CountryCode,
		Dims:            dims,
		WeightKg:        body.WeightKg,
		DistanceKm:      est.DistanceKm,
		Lane:            est.Lane,
		EstimatedPrice:  est.Price,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"request_id": id,
		"status":     request.StatusPending,
		"quote":      quoteView(est),
	})
}

func (h *RequestHandler) Get(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	r, err := h.requests.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	if p.Role == auth.RoleClient && r.ClientID != p.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, requestView(r))
}

// ListMine returns the caller's requests, newest first.
func (h *RequestHandler) ListMine(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	limit, offset := pagination(c)
	list, err := h.requests.ListByClient(c.Request.Context(), p.ID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]gin.H, 0, len(list))
	for i := range list {
		views = append(views, requestView(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"requests": views})
}

// ListOpen returns pending requests partners may bid on.
func (h *RequestHandler) ListOpen(c *gin.Context) {
	limit, offset := pagination(c)
	list, err := h.requests.ListOpen(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]gin.H, 0, len(list))
	for i := range list {
		views = append(views, requestView(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"requests": views})
}

func (h *RequestHandler) Cancel(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	id := types.ID(c.Param("id"))

	if p.Role == auth.RoleClient {
		r, err := h.requests.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		if r.ClientID != p.ID {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
	}

	err := h.requests.Cancel(c.Request.Context(), request.CancelCommand{
		RequestID: id,
		ActorType: string(p.Role),
		ActorID:   p.ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request_id": id, "status": request.StatusCancelled})
}

// Events exposes the state audit trail to admins.
func (h *RequestHandler) Events(c *gin.Context) {
	events, err := h.requests.Events(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]gin.H, 0, len(events))
	for _, e := range events {
		v := gin.H{
			"from_status": e.FromStatus,
			"to_status":   e.ToStatus,
			"actor_type":  e.ActorType,
			"created_at":  e.CreatedAt,
		}
		if e.ActorID != nil {
			v["actor_id"] = *e.ActorID
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, gin.H{"events": views})
}
