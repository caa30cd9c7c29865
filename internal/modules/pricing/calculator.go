// README: Fare calculator; pure arithmetic over the rate card.
package pricing

import (
	"errors"
	"math"
)

// assumedSpeedKmh is the average speed used to derive trip duration from
// distance when no live travel estimate is available.
const assumedSpeedKmh = 30.0

var ErrUnknownRideType = errors.New("unknown ride type")

// Calculator computes fare breakdowns from a rate card. SurgeMultiplier
// scales the whole fare; 1.0 means no surge and an absent surge component.
type Calculator struct {
	rates map[string]Rate
	surge float64
}

func NewCalculator(rates map[string]Rate, surgeMultiplier float64) *Calculator {
	if rates == nil {
		rates = DefaultRates
	}
	if surgeMultiplier < 1 {
		surgeMultiplier = 1
	}
	return &Calculator{rates: rates, surge: surgeMultiplier}
}

// Known reports whether the calculator has a rate for the ride type.
func (c *Calculator) Known(rideType string) bool {
	_, ok := c.rates[rideType]
	return ok
}

// Calculate is deterministic: identical inputs always produce an
// identical breakdown, and Total is the sum of the other components.
func (c *Calculator) Calculate(distanceKm float64, durationMin int, rideType string) (FareBreakdown, error) {
	rate, ok := c.rates[rideType]
	if !ok {
		return FareBreakdown{}, ErrUnknownRideType
	}

	base := round2(rate.BaseFare)
	dist := round2(distanceKm * rate.PerKm)
	dur := round2(float64(durationMin) * rate.PerMin)
	surge := round2((base + dist + dur) * (c.surge - 1))

	return FareBreakdown{
		Base:     base,
		Distance: dist,
		Time:     dur,
		Surge:    surge,
		Total:    round2(base + dist + dur + surge),
	}, nil
}

// DurationMinutes derives trip duration from distance at the assumed
// average speed, rounded to whole minutes with a floor of one minute.
func DurationMinutes(distanceKm float64) int {
	m := int(math.Round(distanceKm / assumedSpeedKmh * 60))
	if m < 1 {
		return 1
	}
	return m
}

// RoundKm normalizes a distance to two decimals before persisting.
func RoundKm(distanceKm float64) float64 {
	return round2(distanceKm)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
