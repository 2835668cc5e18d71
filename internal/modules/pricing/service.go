// README: Pricing service resolves addresses and road distance, then computes a quote.
package pricing

import (
	"context"
	"errors"

	"freta/internal/geo"
	"freta/internal/types"
)

var ErrBadRequest = errors.New("bad pricing request")

type Service struct {
	geocoder geo.Geocoder
	router   geo.Router
}

func NewService(geocoder geo.Geocoder, router geo.Router) *Service {
	return &Service{geocoder: geocoder, router: router}
}

// Estimate resolves both endpoints, fetches the road distance and prices the
// shipment. Resolution failures are returned as-is (geo.ErrNoMatch,
// geo.ErrNoRoute) and are not retried here; the caller re-invokes explicitly.
func (s *Service) Estimate(ctx context.Context, pickupAddr, deliveryAddr string, dims types.Dimensions, weightKg float64) (*Estimate, error) {
	if weightKg <= 0 || dims.HeightCm <= 0 || dims.WidthCm <= 0 || dims.DepthCm <= 0 {
		return nil, ErrBadRequest
	}

	pickup, err := s.geocoder.Geocode(ctx, pickupAddr)
	if err != nil {
		return nil, err
	}
	delivery, err := s.geocoder.Geocode(ctx, deliveryAddr)
	if err != nil {
		return nil, err
	}

	distanceKm, err := s.router.RoadDistanceKm(ctx, pickup.Point, delivery.Point)
	if err != nil {
		return nil, err
	}

	quote := Compute(QuoteInput{
		OriginCountry:      pickup.CountryCode,
		DestinationCountry: delivery.CountryCode,
		DistanceKm:         distanceKm,
		Dims:               dims,
		WeightKg:           weightKg,
	})
	return &Estimate{Quote: quote, Pickup: pickup, Destination: delivery}, nil
}
