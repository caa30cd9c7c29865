// README: Booking service; creation with fare computation, reads, history.
package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rideflow/internal/modules/driver"
	"rideflow/internal/modules/geo"
	"rideflow/internal/modules/pricing"
	"rideflow/internal/types"
)

const defaultHistoryLimit = 100

// Assigner is the dispatch engine as seen from booking creation.
type Assigner interface {
	TryAssign(ctx context.Context, bookingID types.ID, pickup types.Point, rideType string) (*driver.Driver, error)
}

// DurationEstimator refines the fixed-speed duration estimate with live
// travel data. A nil estimator (or an estimator error) falls back to the
// distance-derived duration.
type DurationEstimator interface {
	TravelMinutes(ctx context.Context, origin, dest types.Point) (int, error)
}

type Service struct {
	store    Store
	calc     *pricing.Calculator
	assigner Assigner
	eta      DurationEstimator
	log      zerolog.Logger
}

func NewService(store Store, calc *pricing.Calculator, assigner Assigner, eta DurationEstimator, log zerolog.Logger) *Service {
	return &Service{store: store, calc: calc, assigner: assigner, eta: eta, log: log}
}

type CreateCommand struct {
	RiderID       types.ID
	Pickup        Location
	Drop          Location
	RideType      string
	ScheduledFor  *time.Time
	PaymentMethod string
}

// Create persists a new booking and, unless it is scheduled for later,
// immediately attempts driver assignment. A booking with no claimable
// driver stays pending_assignment and is returned with a nil driver.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, *driver.Driver, error) {
	if cmd.RiderID == "" || cmd.RideType == "" {
		return nil, nil, ErrBadRequest
	}
	if !cmd.Pickup.Coords.Valid() || !cmd.Drop.Coords.Valid() {
		return nil, nil, ErrBadRequest
	}
	if !s.calc.Known(cmd.RideType) {
		return nil, nil, ErrBadRequest
	}

	distKm := pricing.RoundKm(geo.DistanceKm(cmd.Pickup.Coords, cmd.Drop.Coords))
	durationMin := s.estimateDuration(ctx, cmd.Pickup.Coords, cmd.Drop.Coords, distKm)
	fare, err := s.calc.Calculate(distKm, durationMin, cmd.RideType)
	if err != nil {
		return nil, nil, ErrBadRequest
	}

	method := cmd.PaymentMethod
	if method == "" {
		method = "cash"
	}

	now := time.Now()
	b := &Booking{
		ID:          types.ID(uuid.NewString()),
		RiderID:     cmd.RiderID,
		Pickup:      cmd.Pickup,
		Drop:        cmd.Drop,
		RideType:    cmd.RideType,
		DistanceKm:  distKm,
		DurationMin: durationMin,
		Fare:        fare,
		Payment:     Payment{Method: method, Status: "pending"},
		CreatedAt:   now,
	}
	if cmd.ScheduledFor != nil {
		t := *cmd.ScheduledFor
		b.ScheduledFor = &t
		b.Status = StatusScheduled
		b.Logs = []LogEntry{{At: now, Text: "Scheduled booking created"}}
	} else {
		b.Status = StatusPendingAssignment
		b.Logs = []LogEntry{{At: now, Text: "Booking created - pending assignment"}}
	}

	if err := s.store.Create(ctx, b); err != nil {
		return nil, nil, err
	}

	if b.Status != StatusPendingAssignment || s.assigner == nil {
		return b, nil, nil
	}

	drv, err := s.assigner.TryAssign(ctx, b.ID, b.Pickup.Coords, b.RideType)
	if err != nil {
		s.log.Error().Err(err).Str("booking", string(b.ID)).Msg("assignment failed at creation")
		return b, nil, err
	}
	if drv != nil {
		// Reflect the assignment in the returned snapshot.
		b, err = s.store.Get(ctx, b.ID)
		if err != nil {
			return nil, nil, err
		}
	}
	return b, drv, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}

// History lists a rider's bookings, most recent first.
func (s *Service) History(ctx context.Context, riderID types.ID, limit int) ([]Booking, error) {
	if riderID == "" {
		return nil, ErrBadRequest
	}
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	return s.store.ListByRider(ctx, riderID, limit)
}

// CurrentForDriver returns the driver's active booking, if any.
func (s *Service) CurrentForDriver(ctx context.Context, driverID types.ID) (*Booking, error) {
	if driverID == "" {
		return nil, ErrBadRequest
	}
	return s.store.CurrentForDriver(ctx, driverID)
}

func (s *Service) estimateDuration(ctx context.Context, origin, dest types.Point, distKm float64) int {
	if s.eta != nil {
		if m, err := s.eta.TravelMinutes(ctx, origin, dest); err == nil && m > 0 {
			return m
		}
	}
	return pricing.DurationMinutes(distKm)
}
