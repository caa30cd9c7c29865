// README: Stale-assignment reclaimer; frees driver/booking pairs never accepted in time.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"rideflow/internal/config"
	"rideflow/internal/metrics"
	"rideflow/internal/modules/booking"
	"rideflow/internal/modules/driver"
	"rideflow/internal/types"
)

// Reclaimer reverts assignments whose driver never accepted within the
// acceptance timeout. It does not reassign: the booking returns to
// pending_assignment and waits for the next trigger.
type Reclaimer struct {
	bookings booking.Store
	drivers  driver.Store
	cfg      config.DispatchConfig
	log      zerolog.Logger
}

func NewReclaimer(bookings booking.Store, drivers driver.Store, cfg config.DispatchConfig, log zerolog.Logger) *Reclaimer {
	if cfg.SweepPeriod <= 0 {
		cfg.SweepPeriod = time.Minute
	}
	if cfg.AcceptTimeout <= 0 {
		cfg.AcceptTimeout = 2 * time.Minute
	}
	return &Reclaimer{bookings: bookings, drivers: drivers, cfg: cfg, log: log}
}

func (r *Reclaimer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.SweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := r.RunOnce(ctx, time.Now()); err != nil {
				r.log.Error().Err(err).Msg("reclaim sweep failed")
			} else if n > 0 {
				r.log.Info().Int("reclaimed", n).Msg("stale assignments freed")
			}
		}
	}
}

// RunOnce reclaims every stale assignment and returns how many were freed.
// The booking reverts first (it is the source of truth for terminality);
// the driver release is conditioned on still holding this booking, so any
// interleaving with accept or cancel resolves to exactly one winner.
func (r *Reclaimer) RunOnce(ctx context.Context, now time.Time) (int, error) {
	stale, err := r.drivers.ListAssignedBefore(ctx, now.Add(-r.cfg.AcceptTimeout))
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, d := range stale {
		if d.AssignedBookingID == nil {
			continue
		}
		bookingID := *d.AssignedBookingID

		ok, err := r.bookings.UpdateStatus(ctx, bookingID,
			booking.StatusAssigned, booking.StatusPendingAssignment,
			nil, "Assignment reclaimed: driver did not accept in time")
		if err != nil {
			r.log.Error().Err(err).Str("booking", string(bookingID)).Msg("reclaim failed")
			continue
		}
		if !ok && !r.bookingDetached(ctx, bookingID, d.ID) {
			// The driver accepted (or the pair changed) between the scan
			// and the CAS; leave it alone.
			continue
		}

		released, err := r.drivers.Release(ctx, d.ID, bookingID)
		if err != nil {
			r.log.Error().Err(err).Str("driver", string(d.ID)).Msg("driver release failed")
			continue
		}
		if released {
			reclaimed++
			metrics.ReclaimedTotal.Inc()
		}
	}
	return reclaimed, nil
}

// bookingDetached reports whether the booking no longer references the
// driver: a one-sided claim the reclaimer repairs by releasing the driver
// even though the booking CAS did not apply.
func (r *Reclaimer) bookingDetached(ctx context.Context, bookingID, driverID types.ID) bool {
	b, err := r.bookings.Get(ctx, bookingID)
	if err != nil {
		return errors.Is(err, booking.ErrNotFound)
	}
	return b.DriverID == nil || *b.DriverID != driverID
}
