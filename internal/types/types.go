// README: Common value types shared across modules.
package types

// ID identifies a booking, driver, or rider record.
type ID string

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is a well-formed coordinate pair.
func (p Point) Valid() bool {
	if p.Lat != p.Lat || p.Lng != p.Lng { // NaN check
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
