// README: Routing collaborator: road distance between two points via the Directions API.
package geo

import (
	"context"
	"fmt"
	"math"

	"googlemaps.github.io/maps"

	"freta/internal/types"
)

// Router resolves the road distance in whole kilometres between two points.
type Router interface {
	RoadDistanceKm(ctx context.Context, from, to types.Point) (float64, error)
}

// GoogleRouter implements Router with the Google Maps Directions API.
type GoogleRouter struct {
	client *maps.Client
}

func NewGoogleRouter(client *maps.Client) *GoogleRouter {
	return &GoogleRouter{client: client}
}

func (r *GoogleRouter) RoadDistanceKm(ctx context.Context, from, to types.Point) (float64, error) {
	routes, _, err := r.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      latLng(from),
		Destination: latLng(to),
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoRoute, err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, ErrNoRoute
	}

	meters := 0
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
	}
	return math.Round(float64(meters) / 1000), nil
}

func latLng(p types.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
