// README: Tariff tables and the pure quote computation.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Weight bands index all tariff tables: ≤150kg, ≤300kg, ≤600kg, ≤1000kg.
// Heavier loads stay in the top band but are flagged as approximations.
var bandLimitsKg = [4]float64{150, 300, 600, 1000}

// weightBand reports the tariff band for a weight and whether the weight
// falls outside the table's designed range.
func weightBand(weightKg float64) (band int, approx bool) {
	for i, limit := range bandLimitsKg {
		if weightKg <= limit {
			return i, false
		}
	}
	return len(bandLimitsKg) - 1, true
}

// Domestic PT→PT tariff: distance brackets × weight bands, prices in EUR.
var domesticBrackets = []struct {
	maxKm  float64
	prices [4]int64
}{
	{50, [4]int64{45, 60, 80, 100}},
	{150, [4]int64{75, 95, 120, 150}},
	{300, [4]int64{100, 125, 155, 190}},
	{600, [4]int64{130, 155, 190, 235}},
	{math.MaxFloat64, [4]int64{160, 190, 230, 280}},
}

// Cross-border corridors price on weight band only, distance is ignored.
var (
	franceBandPrices = [4]int64{180, 220, 280, 340}
	swissBandPrices  = [4]int64{250, 300, 380, 450}
)

// Advisory notes attached to quotes. At most one note is emitted; the heavy
// approximation wins over corridor-specific notes.
const (
	NoteHeavyApprox = "weight exceeds tariff range; price is an approximation"
	NoteCustoms     = "cross-border corridor; customs clearance may add time and cost"
	NoteGenericLane = "no fixed tariff for this corridor; estimate derived from distance, volume and weight"
)

// Compute derives a quote from resolved facts. It is pure: same input, same
// quote, no side effects.
func Compute(in QuoteInput) Quote {
	volume := in.Dims.VolumeM3()
	band, approx := weightBand(in.WeightKg)
	lane := classifyLane(in.OriginCountry, in.DestinationCountry)

	var price decimal.Decimal
	switch lane {
	case LaneDomestic:
		price = decimal.NewFromInt(domesticPrice(in.DistanceKm, band))
	case LaneFrance:
		price = decimal.NewFromInt(franceBandPrices[band])
	case LaneSwiss:
		price = decimal.NewFromInt(swissBandPrices[band])
	default:
		price = genericPrice(in.DistanceKm, volume, in.WeightKg)
	}

	return Quote{
		DistanceKm: in.DistanceKm,
		VolumeM3:   volume,
		Price:      price.Round(2),
		Lane:       lane,
		Approx:     approx,
		Note:       quoteNote(lane, approx),
	}
}

func classifyLane(origin, destination string) string {
	if origin != "PT" {
		return LaneGeneric
	}
	switch destination {
	case "PT":
		return LaneDomestic
	case "FR":
		return LaneFrance
	case "CH":
		return LaneSwiss
	default:
		return LaneGeneric
	}
}

func domesticPrice(distanceKm float64, band int) int64 {
	for _, b := range domesticBrackets {
		if distanceKm <= b.maxKm {
			return b.prices[band]
		}
	}
	// Unreachable: the last bracket is unbounded.
	return domesticBrackets[len(domesticBrackets)-1].prices[band]
}

// genericPrice = 50 + 1.2*distanceKm + max(100*volumeM3, 2*weightKg).
func genericPrice(distanceKm, volumeM3, weightKg float64) decimal.Decimal {
	base := decimal.NewFromInt(50)
	perKm := decimal.NewFromFloat(1.2).Mul(decimal.NewFromFloat(distanceKm))
	bulk := decimal.Max(
		decimal.NewFromInt(100).Mul(decimal.NewFromFloat(volumeM3)),
		decimal.NewFromInt(2).Mul(decimal.NewFromFloat(weightKg)),
	)
	return base.Add(perKm).Add(bulk)
}

func quoteNote(lane string, approx bool) string {
	switch {
	case approx:
		return NoteHeavyApprox
	case lane == LaneFrance || lane == LaneSwiss:
		return NoteCustoms
	case lane == LaneGeneric:
		return NoteGenericLane
	default:
		return ""
	}
}
