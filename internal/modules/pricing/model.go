// README: Rate card and fare breakdown definitions.
package pricing

// Rate is the per-class tariff used by the calculator.
type Rate struct {
	RideType string
	BaseFare float64
	PerKm    float64
	PerMin   float64
}

// FareBreakdown is the persisted fare structure. Amounts are in INR,
// rounded to two decimals; Total always equals the sum of the components.
type FareBreakdown struct {
	Base     float64 `json:"base"`
	Distance float64 `json:"distance"`
	Time     float64 `json:"time"`
	Surge    float64 `json:"surge"`
	Total    float64 `json:"total"`
}

// DefaultRates covers every vehicle class the dispatcher accepts.
var DefaultRates = map[string]Rate{
	"bike":  {RideType: "bike", BaseFare: 20, PerKm: 8, PerMin: 1},
	"auto":  {RideType: "auto", BaseFare: 30, PerKm: 11, PerMin: 1.5},
	"mini":  {RideType: "mini", BaseFare: 40, PerKm: 13, PerMin: 2},
	"car":   {RideType: "car", BaseFare: 50, PerKm: 14, PerMin: 2},
	"sedan": {RideType: "sedan", BaseFare: 60, PerKm: 16, PerMin: 2.5},
}
