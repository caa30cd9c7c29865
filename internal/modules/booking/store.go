// README: Booking store contract; every status mutation is a conditional update.
package booking

import (
	"context"
	"errors"
	"time"

	"rideflow/internal/modules/pricing"
	"rideflow/internal/types"
)

var (
	ErrNotFound   = errors.New("booking not found")
	ErrBadRequest = errors.New("bad request")
)

// Store persists bookings. UpdateStatus and UpdateDrop are compare-and-set:
// they apply only when the record still carries the expected status and
// report false when a concurrent writer won the race. Callers never hold a
// lock across these calls; the conditional update is the serialization point.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id types.ID) (*Booking, error)
	ListByRider(ctx context.Context, riderID types.ID, limit int) ([]Booking, error)
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]Booking, error)
	CurrentForDriver(ctx context.Context, driverID types.ID) (*Booking, error)

	// UpdateStatus moves the booking from `from` to `to`, appending logText.
	// driverID is stored when `to` holds a driver and cleared when it does not.
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, driverID *types.ID, logText string) (bool, error)

	// UpdateDrop rewrites the destination and derived trip fields, guarded on
	// the booking still being in `from` (one of the driver-held statuses).
	UpdateDrop(ctx context.Context, id types.ID, from Status, drop Location, distanceKm float64, durationMin int, fare pricing.FareBreakdown, at time.Time) (bool, error)

	AppendLog(ctx context.Context, id types.ID, text string) error
	SetPayment(ctx context.Context, id types.ID, p Payment) error
}
