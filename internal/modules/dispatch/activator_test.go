// README: Activator sweep tests; window bounds and per-booking isolation.
package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rideflow/internal/modules/booking"
	"rideflow/internal/types"
)

func newActivator(h *harness) *Activator {
	return NewActivator(h.bookings, h.engine, h.cfg, zerolog.Nop())
}

func TestActivatorPromotesDueBookings(t *testing.T) {
	h := newHarness(t)
	a := newActivator(h)
	now := time.Now()
	h.seedDriver(t, "d-1", "car", testPickup)
	h.seedScheduled(t, "b-due", now.Add(3*time.Minute))

	n, err := a.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("activated %d, want 1", n)
	}
	b := h.mustBooking(t, "b-due")
	// Assignment follows activation in the same sweep.
	if b.Status != booking.StatusAssigned {
		t.Fatalf("status = %s, want assigned", b.Status)
	}
	if len(b.Logs) == 0 || b.Logs[0].Text != "Scheduled booking activated" {
		t.Fatalf("missing activation log: %+v", b.Logs)
	}
}

func TestActivatorLeavesFutureBookings(t *testing.T) {
	h := newHarness(t)
	a := newActivator(h)
	now := time.Now()
	h.seedScheduled(t, "b-later", now.Add(30*time.Minute))
	h.seedScheduled(t, "b-past", now.Add(-10*time.Minute))

	n, err := a.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 0 {
		t.Fatalf("activated %d, want 0", n)
	}
	if b := h.mustBooking(t, "b-later"); b.Status != booking.StatusScheduled {
		t.Fatalf("future booking status = %s", b.Status)
	}
	if b := h.mustBooking(t, "b-past"); b.Status != booking.StatusScheduled {
		t.Fatalf("long-past booking status = %s", b.Status)
	}
}

func TestActivatorWindowEdges(t *testing.T) {
	h := newHarness(t)
	a := newActivator(h)
	now := time.Now()
	h.seedScheduled(t, "b-behind", now.Add(-30*time.Second)) // inside the 1m grace
	h.seedScheduled(t, "b-ahead", now.Add(5*time.Minute))    // inside the 6m lookahead

	n, err := a.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 2 {
		t.Fatalf("activated %d, want 2", n)
	}
}

func TestActivatorSkipsMalformedPickup(t *testing.T) {
	h := newHarness(t)
	a := newActivator(h)
	now := time.Now()

	at := now.Add(2 * time.Minute)
	bad := &booking.Booking{
		ID:           "b-bad",
		RiderID:      "rider-1",
		Pickup:       booking.Location{Address: "broken", Coords: types.Point{Lat: 200, Lng: 72.9}},
		RideType:     "car",
		Status:       booking.StatusScheduled,
		ScheduledFor: &at,
		CreatedAt:    now,
	}
	if err := h.bookings.Create(context.Background(), bad); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h.seedScheduled(t, "b-good", at)

	n, err := a.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("activated %d, want 1", n)
	}
	if b := h.mustBooking(t, "b-bad"); b.Status != booking.StatusScheduled {
		t.Fatalf("malformed booking was activated: %s", b.Status)
	}
	if b := h.mustBooking(t, "b-good"); b.Status == booking.StatusScheduled {
		t.Fatal("good booking skipped because of a bad sibling")
	}
}

func TestActivatorWithoutDriversLeavesPending(t *testing.T) {
	h := newHarness(t)
	a := newActivator(h)
	now := time.Now()
	h.seedScheduled(t, "b-due", now.Add(time.Minute))

	n, err := a.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("activated %d, want 1", n)
	}
	if b := h.mustBooking(t, "b-due"); b.Status != booking.StatusPendingAssignment {
		t.Fatalf("status = %s, want pending_assignment", b.Status)
	}
}
