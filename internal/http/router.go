// README: HTTP router registration; routes grouped by role.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"freta/internal/auth"
	"freta/internal/http/handlers"
	"freta/internal/http/middleware"
	"freta/internal/modules/arbitration"
	"freta/internal/modules/invoice"
	"freta/internal/modules/offer"
	"freta/internal/modules/pricing"
	"freta/internal/modules/request"
	"freta/internal/modules/tracking"
)

type RouterDeps struct {
	Pricing     *pricing.Service
	Requests    *request.Service
	Offers      *offer.Service
	Arbitration *arbitration.Service
	Tracking    *tracking.Service
	Invoices    *invoice.Service
	TokenParser *auth.Parser
	Log         zerolog.Logger
	Environment string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	quoteHandler := handlers.NewQuoteHandler(deps.Pricing)
	requestHandler := handlers.NewRequestHandler(deps.Pricing, deps.Requests)
	offerHandler := handlers.NewOfferHandler(deps.Offers)
	trackingHandler := handlers.NewTrackingHandler(deps.Tracking)
	arbitrationHandler := handlers.NewArbitrationHandler(deps.Arbitration, deps.Invoices, deps.Log)
	invoiceHandler := handlers.NewInvoiceHandler(deps.Invoices)

	api := r.Group("/api", middleware.Auth(deps.TokenParser))

	client := api.Group("", middleware.RequireRole(auth.RoleClient))
	{
		client.POST("/quotes", quoteHandler.Estimate)
		client.POST("/requests", requestHandler.Create)
		client.GET("/requests", requestHandler.ListMine)
	}

	api.GET("/requests/:id", requestHandler.Get)
	api.GET("/requests/:id/tracking", trackingHandler.ListByRequest)
	api.POST("/requests/:id/cancel",
		middleware.RequireRole(auth.RoleClient, auth.RoleAdmin), requestHandler.Cancel)

	partner := api.Group("", middleware.RequireRole(auth.RolePartner))
	{
		partner.GET("/open-requests", requestHandler.ListOpen)
		partner.POST("/requests/:id/offers", offerHandler.Submit)
		partner.GET("/offers/mine", offerHandler.ListMine)
		partner.POST("/requests/:id/tracking", trackingHandler.Append)
		partner.PUT("/partner/position", trackingHandler.UpdatePosition)
	}

	admin := api.Group("", middleware.RequireRole(auth.RoleAdmin))
	{
		admin.GET("/requests/:id/offers", offerHandler.ListByRequest)
		admin.GET("/requests/:id/events", requestHandler.Events)
		admin.POST("/requests/:id/arbitrate", arbitrationHandler.Arbitrate)
		admin.POST("/requests/:id/reconcile", arbitrationHandler.Reconcile)
		admin.GET("/requests/:id/assignment", arbitrationHandler.GetAssignment)
		admin.GET("/requests/:id/invoice", invoiceHandler.GetByRequest)
		admin.POST("/invoices/:id/payment", invoiceHandler.SetPayment)
		admin.GET("/partners/:id/position", trackingHandler.LastPosition)
	}

	return r
}
