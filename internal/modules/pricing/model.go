// README: Quote shapes produced by the tariff engine.
package pricing

import (
	"github.com/shopspring/decimal"

	"freta/internal/geo"
	"freta/internal/types"
)

// Lane tags identify the tariff corridor used for a quote.
const (
	LaneDomestic = "PT→PT"
	LaneFrance   = "PT→FR"
	LaneSwiss    = "PT→CH"
	LaneGeneric  = "GENERIC"
)

// QuoteInput carries resolved geographic facts plus the package profile.
type QuoteInput struct {
	OriginCountry      string
	DestinationCountry string
	DistanceKm         float64
	Dims               types.Dimensions
	WeightKg           float64
}

// Quote is a deterministic price estimate. Approx is set when the weight
// exceeds the tariff table's designed range; the price is still the top-band
// price rather than a rejection.
type Quote struct {
	DistanceKm float64
	VolumeM3   float64
	Price      decimal.Decimal
	Lane       string
	Approx     bool
	Note       string
}

// Estimate is a Quote together with the two resolved endpoints.
type Estimate struct {
	Quote
	Pickup      geo.Location
	Destination geo.Location
}
