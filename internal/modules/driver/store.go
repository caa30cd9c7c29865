// README: Driver store contract; the claim protocol is a set of conditional updates.
package driver

import (
	"context"
	"errors"
	"time"

	"rideflow/internal/types"
)

var (
	ErrNotFound    = errors.New("driver not found")
	ErrBadRequest  = errors.New("bad request")
	ErrPhoneExists = errors.New("phone already registered")
)

// Store persists drivers. All assignment-related mutations are
// compare-and-set on the driver's current status (and, where a booking is
// involved, on assigned_booking_id), so at most one of any set of racing
// writers succeeds. A false return means the precondition no longer held.
type Store interface {
	Create(ctx context.Context, d *Driver) error
	Get(ctx context.Context, id types.ID) (*Driver, error)
	UpdateLocation(ctx context.Context, id types.ID, pos types.Point) (*Driver, error)

	// Claim marks an available driver assigned to the booking.
	Claim(ctx context.Context, id, bookingID types.ID, at time.Time) (bool, error)

	// Advance moves a driver holding bookingID from one held status to
	// another (assigned→accepted, accepted→busy, and rollbacks thereof).
	Advance(ctx context.Context, id, bookingID types.ID, from, to Status) (bool, error)

	// Release frees a driver holding bookingID from any held status,
	// clearing the assignment fields.
	Release(ctx context.Context, id, bookingID types.ID) (bool, error)

	// FinishRide releases a busy driver and credits the fare and ride count.
	FinishRide(ctx context.Context, id, bookingID types.ID, fareTotal float64) (bool, error)

	// ListAssignedBefore returns drivers stuck in assigned since before cutoff.
	ListAssignedBefore(ctx context.Context, cutoff time.Time) ([]Driver, error)
}
