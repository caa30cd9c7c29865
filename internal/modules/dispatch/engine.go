// README: Driver assignment engine; nearest-first candidate sweep with CAS claims.
package dispatch

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"rideflow/internal/config"
	"rideflow/internal/metrics"
	"rideflow/internal/modules/booking"
	"rideflow/internal/modules/driver"
	"rideflow/internal/modules/geo"
	"rideflow/internal/types"
)

var (
	// ErrInvalidState: the operation is not legal for the entity's current
	// status, or the acting driver does not hold the booking.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrConflict: a concurrent writer won the race on the same entity.
	ErrConflict = errors.New("state conflict")
)

type Engine struct {
	bookings booking.Store
	drivers  driver.Store
	index    geo.Index
	cfg      config.DispatchConfig
	log      zerolog.Logger
	clock    clock
}

func NewEngine(bookings booking.Store, drivers driver.Store, index geo.Index, cfg config.DispatchConfig, log zerolog.Logger) *Engine {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 10
	}
	return &Engine{
		bookings: bookings,
		drivers:  drivers,
		index:    index,
		cfg:      cfg,
		log:      log,
		clock:    systemClock{},
	}
}

// TryAssign walks the nearest available drivers and attempts an atomic claim
// on each in turn. A lost claim is expected contention, not an error; a full
// sweep with no success leaves the booking pending_assignment and returns a
// nil driver.
func (e *Engine) TryAssign(ctx context.Context, bookingID types.ID, pickup types.Point, rideType string) (*driver.Driver, error) {
	// The index holds positions for every driver of the class, held or not.
	// Query unbounded within the radius and filter by status here so held
	// drivers never consume a slot of the claim budget; CandidateLimit
	// bounds claim attempts, not position hits.
	candidates, err := e.index.Nearby(ctx, pickup, rideType, 0)
	if err != nil {
		return nil, err
	}

	attempts := 0
	for _, cand := range candidates {
		if attempts >= e.cfg.CandidateLimit {
			break
		}
		d, err := e.drivers.Get(ctx, cand.DriverID)
		if err != nil {
			if errors.Is(err, driver.ErrNotFound) {
				continue // index lags behind store deletions
			}
			return nil, err
		}
		if d.Status != driver.StatusAvailable {
			continue
		}
		attempts++

		claimed, err := e.drivers.Claim(ctx, cand.DriverID, bookingID, e.clock.Now())
		if err != nil {
			return nil, err
		}
		if !claimed {
			// Raced between the status read and the claim; next candidate.
			metrics.AssignmentContentionTotal.Inc()
			continue
		}

		ok, err := e.bookings.UpdateStatus(ctx, bookingID,
			booking.StatusPendingAssignment, booking.StatusAssigned,
			&cand.DriverID, "Driver assigned")
		if err == nil && ok {
			metrics.AssignmentsTotal.Inc()
			e.log.Info().
				Str("booking", string(bookingID)).
				Str("driver", string(cand.DriverID)).
				Float64("distance_km", cand.DistanceKm).
				Msg("driver assigned")
			return e.drivers.Get(ctx, cand.DriverID)
		}

		// The booking is gone or no longer pending (cancelled, or another
		// assigner won); a driver must never stay claimed against it.
		if _, rbErr := e.drivers.Release(ctx, cand.DriverID, bookingID); rbErr != nil {
			e.log.Error().Err(rbErr).
				Str("booking", string(bookingID)).
				Str("driver", string(cand.DriverID)).
				Msg("claim rollback failed")
		}
		if err != nil {
			return nil, err
		}
		return nil, nil
	}

	metrics.AssignmentNoneTotal.Inc()
	return nil, nil
}
