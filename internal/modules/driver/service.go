// README: Driver service; registration, location updates, nearby reads, stats.
package driver

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rideflow/internal/modules/geo"
	"rideflow/internal/modules/pricing"
	"rideflow/internal/types"
)

type Service struct {
	store Store
	index geo.Index
	log   zerolog.Logger
}

func NewService(store Store, index geo.Index, log zerolog.Logger) *Service {
	return &Service{store: store, index: index, log: log}
}

type RegisterCommand struct {
	OwnerID      types.ID
	Name         string
	Phone        string
	VehicleClass string
}

// Stats is the driver-facing earnings summary.
type Stats struct {
	TotalEarnings float64 `json:"totalEarnings"`
	TotalRides    int     `json:"totalRides"`
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Driver, error) {
	if cmd.OwnerID == "" || cmd.Name == "" || cmd.Phone == "" || cmd.VehicleClass == "" {
		return nil, ErrBadRequest
	}
	if _, ok := pricing.DefaultRates[cmd.VehicleClass]; !ok {
		return nil, ErrBadRequest
	}
	d := &Driver{
		ID:           types.ID(uuid.NewString()),
		OwnerID:      cmd.OwnerID,
		Name:         cmd.Name,
		Phone:        cmd.Phone,
		VehicleClass: cmd.VehicleClass,
		Status:       StatusAvailable,
		CreatedAt:    time.Now(),
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Driver, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}

// UpdateLocation stores the new position and refreshes the geo index.
// The index write is independent of the claim protocol: a position update
// never touches assignment state.
func (s *Service) UpdateLocation(ctx context.Context, id types.ID, pos types.Point) (*Driver, error) {
	if id == "" || !pos.Valid() {
		return nil, ErrBadRequest
	}
	d, err := s.store.UpdateLocation(ctx, id, pos)
	if err != nil {
		return nil, err
	}
	if err := s.index.Upsert(ctx, d.ID, d.VehicleClass, pos); err != nil {
		s.log.Warn().Err(err).Str("driver", string(id)).Msg("geo index update failed")
	}
	return d, nil
}

// NearbyAvailable lists available drivers of the class around a point,
// nearest first. Read-only; used by driver-side polling, not assignment.
func (s *Service) NearbyAvailable(ctx context.Context, pos types.Point, vehicleClass string, limit int) ([]Driver, error) {
	if !pos.Valid() || vehicleClass == "" {
		return nil, ErrBadRequest
	}
	candidates, err := s.index.Nearby(ctx, pos, vehicleClass, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Driver, 0, len(candidates))
	for _, c := range candidates {
		d, err := s.store.Get(ctx, c.DriverID)
		if err != nil {
			continue // index may lag behind deletions
		}
		if d.Status == StatusAvailable {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *Service) StatsFor(ctx context.Context, id types.ID) (Stats, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return Stats{}, err
	}
	return Stats{TotalEarnings: d.TotalEarnings, TotalRides: d.TotalRides}, nil
}
