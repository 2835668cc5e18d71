// README: Tracking endpoints: event appends and carrier positions.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"freta/internal/http/middleware"
	"freta/internal/modules/tracking"
	"freta/internal/types"
)

type TrackingHandler struct {
	tracking *tracking.Service
}

func NewTrackingHandler(svc *tracking.Service) *TrackingHandler {
	return &TrackingHandler{tracking: svc}
}

type appendTrackingBody struct {
	StatusLabel string   `json:"status_label"`
	Note        string   `json:"note"`
	PhotoRefs   []string `json:"photo_refs"`
}

func (h *TrackingHandler) Append(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var body appendTrackingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := h.tracking.Append(c.Request.Context(), tracking.AppendCommand{
		RequestID:   types.ID(c.Param("id")),
		PartnerID:   p.ID,
		StatusLabel: body.StatusLabel,
		Note:        body.Note,
		PhotoRefs:   body.PhotoRefs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, trackingView(u))
}

func (h *TrackingHandler) ListByRequest(c *gin.Context) {
	list, err := h.tracking.ListByRequest(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]gin.H, 0, len(list))
	for i := range list {
		views = append(views, trackingView(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"updates": views})
}

type positionBody struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	RequestID string  `json:"request_id"`
}

func (h *TrackingHandler) UpdatePosition(c *gin.Context) {
	p, _ := middleware.PrincipalFrom(c)
	var body positionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	cmd := tracking.PositionCommand{
		PartnerID: p.ID,
		Point:     types.Point{Lat: body.Lat, Lng: body.Lng},
	}
	if body.RequestID != "" {
		id := types.ID(body.RequestID)
		cmd.RequestID = &id
	}
	if err := h.tracking.UpdatePosition(c.Request.Context(), cmd); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TrackingHandler) LastPosition(c *gin.Context) {
	point, ok, err := h.tracking.LastPosition(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no position reported"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lat": point.Lat, "lng": point.Lng})
}
