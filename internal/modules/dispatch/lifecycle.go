// README: Booking lifecycle; validated transitions applied pairwise to booking and driver.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"rideflow/internal/modules/booking"
	"rideflow/internal/modules/driver"
	"rideflow/internal/modules/geo"
	"rideflow/internal/modules/pricing"
	"rideflow/internal/types"
)

// reassignTimeout bounds the background reassignment attempt after a decline.
const reassignTimeout = 10 * time.Second

// Lifecycle drives the booking state machine. Each operation validates the
// current status before mutating and keeps the booking/driver pair in sync:
// driver-side CAS first on accept/start, booking-side CAS first on
// cancel/complete, with a compensating release whenever the second update
// loses a race.
type Lifecycle struct {
	bookings booking.Store
	drivers  driver.Store
	engine   *Engine
	calc     *pricing.Calculator
	log      zerolog.Logger
}

func NewLifecycle(bookings booking.Store, drivers driver.Store, engine *Engine, calc *pricing.Calculator, log zerolog.Logger) *Lifecycle {
	return &Lifecycle{bookings: bookings, drivers: drivers, engine: engine, calc: calc, log: log}
}

// Accept: the driver confirms an assignment they hold.
func (l *Lifecycle) Accept(ctx context.Context, driverID, bookingID types.ID) error {
	if _, err := l.heldBy(ctx, driverID, bookingID, driver.StatusAssigned); err != nil {
		return err
	}
	ok, err := l.drivers.Advance(ctx, driverID, bookingID, driver.StatusAssigned, driver.StatusAccepted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	ok, err = l.bookings.UpdateStatus(ctx, bookingID,
		booking.StatusAssigned, booking.StatusAccepted, nil, "Driver accepted booking")
	if err == nil && ok {
		return nil
	}
	// Booking moved on (cancelled or reclaimed); undo the driver side.
	if _, rbErr := l.drivers.Release(ctx, driverID, bookingID); rbErr != nil {
		l.log.Error().Err(rbErr).Str("driver", string(driverID)).Msg("accept rollback failed")
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// Decline releases the pair back to available/pending_assignment and kicks
// off a background reassignment attempt for the booking.
func (l *Lifecycle) Decline(ctx context.Context, driverID, bookingID types.ID) error {
	if _, err := l.heldBy(ctx, driverID, bookingID, driver.StatusAssigned); err != nil {
		return err
	}
	ok, err := l.drivers.Release(ctx, driverID, bookingID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	ok, err = l.bookings.UpdateStatus(ctx, bookingID,
		booking.StatusAssigned, booking.StatusPendingAssignment, nil, "Driver declined assignment")
	if err != nil {
		return err
	}
	if !ok {
		// A concurrent cancel won; nothing left to reassign.
		return nil
	}

	go l.reassign(bookingID)
	return nil
}

// Start: the driver begins the ride.
func (l *Lifecycle) Start(ctx context.Context, driverID, bookingID types.ID) error {
	if _, err := l.heldBy(ctx, driverID, bookingID, driver.StatusAccepted); err != nil {
		return err
	}
	ok, err := l.drivers.Advance(ctx, driverID, bookingID, driver.StatusAccepted, driver.StatusBusy)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	ok, err = l.bookings.UpdateStatus(ctx, bookingID,
		booking.StatusAccepted, booking.StatusRunning, nil, "Driver started the ride")
	if err == nil && ok {
		return nil
	}
	if _, rbErr := l.drivers.Advance(ctx, driverID, bookingID, driver.StatusBusy, driver.StatusAccepted); rbErr != nil {
		l.log.Error().Err(rbErr).Str("driver", string(driverID)).Msg("start rollback failed")
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// CompleteRide: the driver finishes the ride; earnings and ride count are
// credited from the booking's fare total.
func (l *Lifecycle) CompleteRide(ctx context.Context, driverID, bookingID types.ID) error {
	if _, err := l.heldBy(ctx, driverID, bookingID, driver.StatusBusy); err != nil {
		return err
	}
	return l.complete(ctx, bookingID, "Driver completed the ride")
}

// CompleteBooking is the rider-side completion of a running booking.
func (l *Lifecycle) CompleteBooking(ctx context.Context, bookingID types.ID) error {
	return l.complete(ctx, bookingID, "Booking completed")
}

func (l *Lifecycle) complete(ctx context.Context, bookingID types.ID, logText string) error {
	b, err := l.bookings.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.CanTransition(b.Status, booking.StatusCompleted) {
		return ErrInvalidState
	}
	ok, err := l.bookings.UpdateStatus(ctx, bookingID,
		b.Status, booking.StatusCompleted, nil, logText)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if b.DriverID == nil {
		return nil
	}
	credited, err := l.drivers.FinishRide(ctx, *b.DriverID, bookingID, b.Fare.Total)
	if err != nil {
		return err
	}
	if !credited {
		// The driver record is out of step; free it without crediting twice.
		if _, err := l.drivers.Release(ctx, *b.DriverID, bookingID); err != nil {
			return err
		}
		l.log.Warn().Str("booking", string(bookingID)).Str("driver", string(*b.DriverID)).
			Msg("ride completion found driver out of busy state")
	}
	return nil
}

// Cancel aborts a non-terminal booking and frees its driver, if any.
func (l *Lifecycle) Cancel(ctx context.Context, bookingID types.ID) error {
	b, err := l.bookings.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.CanTransition(b.Status, booking.StatusCancelled) {
		return ErrInvalidState
	}
	ok, err := l.bookings.UpdateStatus(ctx, bookingID,
		b.Status, booking.StatusCancelled, nil, "Booking cancelled")
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	if b.DriverID != nil {
		released, err := l.drivers.Release(ctx, *b.DriverID, bookingID)
		if err != nil {
			return err
		}
		if !released {
			l.log.Warn().Str("booking", string(bookingID)).Str("driver", string(*b.DriverID)).
				Msg("cancel found driver already released")
		}
	}
	return nil
}

// UpdateDestination changes the drop point mid-ride and recomputes the
// distance, duration, and fare. Legal only while a driver holds the booking.
func (l *Lifecycle) UpdateDestination(ctx context.Context, bookingID types.ID, newDrop booking.Location) (*booking.Booking, error) {
	if !newDrop.Coords.Valid() {
		return nil, booking.ErrBadRequest
	}
	b, err := l.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.Status.Held() {
		return nil, ErrInvalidState
	}

	distKm := pricing.RoundKm(geo.DistanceKm(b.Pickup.Coords, newDrop.Coords))
	durationMin := pricing.DurationMinutes(distKm)
	fare, err := l.calc.Calculate(distKm, durationMin, b.RideType)
	if err != nil {
		return nil, booking.ErrBadRequest
	}

	ok, err := l.bookings.UpdateDrop(ctx, bookingID, b.Status, newDrop, distKm, durationMin, fare, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	_ = l.bookings.AppendLog(ctx, bookingID, "Destination updated by rider")
	return l.bookings.Get(ctx, bookingID)
}

func (l *Lifecycle) heldBy(ctx context.Context, driverID, bookingID types.ID, want driver.Status) (*driver.Driver, error) {
	d, err := l.drivers.Get(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if d.AssignedBookingID == nil || *d.AssignedBookingID != bookingID || d.Status != want {
		return nil, ErrInvalidState
	}
	return d, nil
}

// reassign runs after a decline, detached from the request. Failure to find
// a new driver is logged, never surfaced.
func (l *Lifecycle) reassign(bookingID types.ID) {
	ctx, cancel := context.WithTimeout(context.Background(), reassignTimeout)
	defer cancel()

	b, err := l.bookings.Get(ctx, bookingID)
	if err != nil {
		l.log.Warn().Err(err).Str("booking", string(bookingID)).Msg("reassign: booking fetch failed")
		return
	}
	if b.Status != booking.StatusPendingAssignment {
		return // cancelled (or re-assigned) in the meantime
	}
	if _, err := l.engine.TryAssign(ctx, b.ID, b.Pickup.Coords, b.RideType); err != nil {
		l.log.Warn().Err(err).Str("booking", string(bookingID)).Msg("reassign attempt failed")
	}
}
