// README: Google Directions adapter; refines trip duration estimates.
package maps

import (
	"context"
	"fmt"
	"math"
	"time"

	"googlemaps.github.io/maps"

	"rideflow/internal/types"
)

// RouteService wraps the Google Maps Directions API. It implements the
// booking service's DurationEstimator; when no API key is configured the
// caller should pass a nil estimator and rely on the fixed-speed fallback.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a RouteService with the given API key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// TravelMinutes returns the driving duration between two points, rounded up
// to whole minutes with a floor of one.
func (s *RouteService) TravelMinutes(ctx context.Context, origin, dest types.Point) (int, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", dest.Lat, dest.Lng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}

	total := time.Duration(0)
	for _, leg := range routes[0].Legs {
		total += leg.Duration
	}
	minutes := int(math.Ceil(total.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return minutes, nil
}
