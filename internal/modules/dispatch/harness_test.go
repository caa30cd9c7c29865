// README: Shared in-memory fixture for dispatch tests.
package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"rideflow/internal/config"
	"rideflow/internal/modules/booking"
	"rideflow/internal/modules/driver"
	"rideflow/internal/modules/geo"
	"rideflow/internal/modules/pricing"
	"rideflow/internal/types"
)

var (
	testPickup = types.Point{Lat: 19.0760, Lng: 72.8777}
	testDrop   = types.Point{Lat: 19.1000, Lng: 72.9000}
)

type harness struct {
	bookings  *booking.MemoryStore
	drivers   *driver.MemoryStore
	index     *geo.MemoryIndex
	engine    *Engine
	lifecycle *Lifecycle
	cfg       config.DispatchConfig
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.DispatchConfig{
		SearchRadiusKm: 5.0,
		CandidateLimit: 10,
		SweepPeriod:    time.Minute,
		AcceptTimeout:  2 * time.Minute,
		ActivateBehind: time.Minute,
		ActivateAhead:  6 * time.Minute,
	}
	bookings := booking.NewMemoryStore()
	drivers := driver.NewMemoryStore()
	index := geo.NewMemoryIndex(cfg.SearchRadiusKm)
	engine := NewEngine(bookings, drivers, index, cfg, zerolog.Nop())
	calc := pricing.NewCalculator(pricing.DefaultRates, 1.0)
	lc := NewLifecycle(bookings, drivers, engine, calc, zerolog.Nop())
	return &harness{bookings: bookings, drivers: drivers, index: index, engine: engine, lifecycle: lc, cfg: cfg}
}

// seedDriver registers an available driver and indexes their position.
func (h *harness) seedDriver(t *testing.T, id types.ID, class string, pos types.Point) {
	t.Helper()
	d := &driver.Driver{
		ID:           id,
		OwnerID:      "owner-" + id,
		Name:         "Driver " + string(id),
		Phone:        "+91-" + string(id),
		VehicleClass: class,
		Position:     pos,
		Status:       driver.StatusAvailable,
		CreatedAt:    time.Now(),
	}
	if err := h.drivers.Create(context.Background(), d); err != nil {
		t.Fatalf("seed driver %s: %v", id, err)
	}
	if err := h.index.Upsert(context.Background(), id, class, pos); err != nil {
		t.Fatalf("index driver %s: %v", id, err)
	}
}

// seedPending creates a booking waiting for a driver.
func (h *harness) seedPending(t *testing.T, id types.ID, rideType string) *booking.Booking {
	t.Helper()
	b := &booking.Booking{
		ID:          id,
		RiderID:     "rider-1",
		Pickup:      booking.Location{Address: "Dadar East", Coords: testPickup},
		Drop:        booking.Location{Address: "Powai", Coords: testDrop},
		RideType:    rideType,
		DistanceKm:  3.54,
		DurationMin: 7,
		Fare:        pricing.FareBreakdown{Base: 50, Distance: 49.56, Time: 14, Total: 113.56},
		Payment:     booking.Payment{Method: "cash", Status: "pending"},
		Status:      booking.StatusPendingAssignment,
		CreatedAt:   time.Now(),
	}
	if err := h.bookings.Create(context.Background(), b); err != nil {
		t.Fatalf("seed booking %s: %v", id, err)
	}
	return b
}

// seedScheduled creates a booking planned for `at`.
func (h *harness) seedScheduled(t *testing.T, id types.ID, at time.Time) *booking.Booking {
	t.Helper()
	b := &booking.Booking{
		ID:           id,
		RiderID:      "rider-1",
		Pickup:       booking.Location{Address: "Dadar East", Coords: testPickup},
		Drop:         booking.Location{Address: "Powai", Coords: testDrop},
		RideType:     "car",
		Status:       booking.StatusScheduled,
		ScheduledFor: &at,
		Payment:      booking.Payment{Method: "cash", Status: "pending"},
		CreatedAt:    time.Now(),
	}
	if err := h.bookings.Create(context.Background(), b); err != nil {
		t.Fatalf("seed scheduled booking %s: %v", id, err)
	}
	return b
}

func (h *harness) mustBooking(t *testing.T, id types.ID) *booking.Booking {
	t.Helper()
	b, err := h.bookings.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get booking %s: %v", id, err)
	}
	return b
}

func (h *harness) mustDriver(t *testing.T, id types.ID) *driver.Driver {
	t.Helper()
	d, err := h.drivers.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get driver %s: %v", id, err)
	}
	return d
}

// assign runs TryAssign and fails the test unless a driver was found.
func (h *harness) assign(t *testing.T, bookingID types.ID) *driver.Driver {
	t.Helper()
	d, err := h.engine.TryAssign(context.Background(), bookingID, testPickup, "car")
	if err != nil {
		t.Fatalf("TryAssign: %v", err)
	}
	if d == nil {
		t.Fatal("TryAssign found no driver")
	}
	return d
}
