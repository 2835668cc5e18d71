// README: Geocoding collaborator backed by the Google Geocoding API.
package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"freta/internal/types"
)

var (
	// ErrNoMatch means the address could not be resolved. Not retried
	// automatically; the caller re-triggers with a corrected address.
	ErrNoMatch = errors.New("geocode: no match for address")
	// ErrNoRoute means no road route exists between the two points.
	ErrNoRoute = errors.New("route: no road distance available")
)

// Location is a resolved address: coordinates plus ISO 3166-1 alpha-2 country code.
type Location struct {
	Point       types.Point
	CountryCode string
}

// Geocoder resolves a free-text address to a Location.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Location, error)
}

// GoogleGeocoder implements Geocoder with the Google Maps client.
type GoogleGeocoder struct {
	client *maps.Client
	region string
}

// NewGoogleGeocoder builds a geocoder biased to the given region (e.g. "PT").
func NewGoogleGeocoder(client *maps.Client, region string) *GoogleGeocoder {
	return &GoogleGeocoder{client: client, region: region}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (Location, error) {
	if strings.TrimSpace(address) == "" {
		return Location{}, ErrNoMatch
	}
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  g.region,
	})
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrNoMatch, err)
	}
	if len(results) == 0 {
		return Location{}, ErrNoMatch
	}

	best := results[0]
	country := countryCode(best.AddressComponents)
	if country == "" {
		return Location{}, ErrNoMatch
	}
	return Location{
		Point: types.Point{
			Lat: best.Geometry.Location.Lat,
			Lng: best.Geometry.Location.Lng,
		},
		CountryCode: country,
	}, nil
}

// countryCode extracts the ISO country code from geocoding address components.
func countryCode(components []maps.AddressComponent) string {
	for _, c := range components {
		for _, t := range c.Types {
			if t == "country" {
				return strings.ToUpper(c.ShortName)
			}
		}
	}
	return ""
}
