// README: Scheduled-booking activator; periodic promotion into the assignment pipeline.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"rideflow/internal/config"
	"rideflow/internal/metrics"
	"rideflow/internal/modules/booking"
)

// Activator promotes scheduled bookings whose time has arrived. The window
// reaches slightly behind "now" to absorb processing jitter and several
// minutes ahead so a booking is dispatched before its scheduled instant.
type Activator struct {
	bookings booking.Store
	engine   *Engine
	cfg      config.DispatchConfig
	log      zerolog.Logger
}

func NewActivator(bookings booking.Store, engine *Engine, cfg config.DispatchConfig, log zerolog.Logger) *Activator {
	if cfg.SweepPeriod <= 0 {
		cfg.SweepPeriod = time.Minute
	}
	if cfg.ActivateBehind <= 0 {
		cfg.ActivateBehind = time.Minute
	}
	if cfg.ActivateAhead <= 0 {
		cfg.ActivateAhead = 6 * time.Minute
	}
	return &Activator{bookings: bookings, engine: engine, cfg: cfg, log: log}
}

// Run loops until the context is cancelled. Sweep errors are logged and
// retried on the next tick; nothing is ever surfaced to a user.
func (a *Activator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := a.RunOnce(ctx, time.Now()); err != nil {
				a.log.Error().Err(err).Msg("activation sweep failed")
			} else if n > 0 {
				a.log.Info().Int("activated", n).Msg("scheduled bookings activated")
			}
		}
	}
}

// RunOnce activates every scheduled booking inside the window around now.
// Each booking is handled independently: malformed records are skipped with
// a warning and one failure never aborts the batch.
func (a *Activator) RunOnce(ctx context.Context, now time.Time) (int, error) {
	from := now.Add(-a.cfg.ActivateBehind)
	to := now.Add(a.cfg.ActivateAhead)

	due, err := a.bookings.ListScheduledBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}

	activated := 0
	for _, b := range due {
		if !b.Pickup.Coords.Valid() {
			a.log.Warn().Str("booking", string(b.ID)).Msg("skipping scheduled booking with malformed pickup")
			continue
		}

		ok, err := a.bookings.UpdateStatus(ctx, b.ID,
			booking.StatusScheduled, booking.StatusPendingAssignment,
			nil, "Scheduled booking activated")
		if err != nil {
			a.log.Error().Err(err).Str("booking", string(b.ID)).Msg("activation failed")
			continue
		}
		if !ok {
			continue // cancelled, or another instance activated it first
		}
		activated++
		metrics.ActivatedTotal.Inc()

		if _, err := a.engine.TryAssign(ctx, b.ID, b.Pickup.Coords, b.RideType); err != nil {
			a.log.Error().Err(err).Str("booking", string(b.ID)).Msg("assignment after activation failed")
		}
	}
	return activated, nil
}
