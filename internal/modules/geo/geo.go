// README: Driver position index contract and pure geographic helpers.
package geo

import (
	"context"
	"math"

	"rideflow/internal/types"
)

const earthRadiusKm = 6371.0

// Candidate is a driver position hit, nearest first in query results.
type Candidate struct {
	DriverID   types.ID
	DistanceKm float64
}

// Index answers "nearest drivers of a vehicle class around a point".
// Reads are safe to run concurrently with claims elsewhere; the index
// holds positions only, so callers filter the hits by driver status and
// the claim CAS remains the final arbiter. A limit <= 0 means every hit
// inside the radius.
type Index interface {
	Upsert(ctx context.Context, driverID types.ID, vehicleClass string, pos types.Point) error
	Remove(ctx context.Context, driverID types.ID, vehicleClass string) error
	Nearby(ctx context.Context, pos types.Point, vehicleClass string, limit int) ([]Candidate, error)
}

// DistanceKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func DistanceKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// sortByDistance performs an insertion sort (fine for small N) on any slice
// where each element exposes a distance via the accessor function.
func sortByDistance[T any](items []T, dist func(T) float64) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && dist(items[j]) > dist(key) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}
