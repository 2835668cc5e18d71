// README: Entry point; loads config, runs migrations, wires services and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"googlemaps.github.io/maps"

	"freta/internal/auth"
	"freta/internal/config"
	"freta/internal/db"
	"freta/internal/geo"
	httptransport "freta/internal/http"
	"freta/internal/infra"
	"freta/internal/logger"
	"freta/internal/modules/arbitration"
	"freta/internal/modules/invoice"
	"freta/internal/modules/offer"
	"freta/internal/modules/pricing"
	"freta/internal/modules/request"
	"freta/internal/modules/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logg := logger.New(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Auth.Secret == "" {
		logg.Fatal().Msg("AUTH_SECRET is required")
	}
	if cfg.Maps.APIKey == "" {
		logg.Fatal().Msg("MAPS_API_KEY is required")
	}

	mapsClient, err := maps.NewClient(maps.WithAPIKey(cfg.Maps.APIKey))
	if err != nil {
		logg.Fatal().Err(err).Msg("maps init")
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logg.Fatal().Err(err).Msg("db connect")
	}
	defer dbPool.Close()

	if err := db.Apply(ctx, dbPool); err != nil {
		logg.Fatal().Err(err).Msg("db migrate")
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)

	geocoder := geo.NewGoogleGeocoder(mapsClient, cfg.Maps.Region)
	router := geo.NewGoogleRouter(mapsClient)
	pricingSvc := pricing.NewService(geocoder, router)

	requestStore := request.NewStore(dbPool)
	requestSvc := request.NewService(requestStore)

	offerStore := offer.NewStore(dbPool)
	offerSvc := offer.NewService(offerStore, requestSvc)

	assignmentStore := arbitration.NewStore(dbPool)
	attemptStore := arbitration.NewAttemptStore(redisClient)
	arbitrationSvc := arbitration.NewService(requestSvc, offerSvc, assignmentStore, attemptStore, logg)

	trackingStore := tracking.NewStore(dbPool, redisClient)
	trackingSvc := tracking.NewService(trackingStore, requestSvc, assignmentStore)

	invoiceStore := invoice.NewStore(dbPool)
	invoiceSvc := invoice.NewService(invoiceStore, requestSvc, assignmentStore, invoice.Policy{
		Mode:       cfg.Commission.Mode,
		PercentBps: cfg.Commission.PercentBps,
		Flat:       cfg.Commission.Flat,
	})

	engine := httptransport.NewRouter(httptransport.RouterDeps{
		Pricing:     pricingSvc,
		Requests:    requestSvc,
		Offers:      offerSvc,
		Arbitration: arbitrationSvc,
		Tracking:    trackingSvc,
		Invoices:    invoiceSvc,
		TokenParser: auth.NewParser(cfg.Auth.Secret),
		Log:         logg,
		Environment: cfg.Environment,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: engine}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error().Err(err).Msg("shutdown")
		}
	}()

	logg.Info().Str("addr", cfg.HTTP.Addr).Msg("listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Fatal().Err(err).Msg("server")
	}
}
