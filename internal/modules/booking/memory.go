// README: In-memory booking store for tests and single-node runs.
package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"rideflow/internal/modules/pricing"
	"rideflow/internal/types"
)

// MemoryStore implements Store with a mutex-guarded map. The mutex makes
// each conditional update atomic, mirroring the SQL CAS semantics.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[types.ID]*Booking
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[types.ID]*Booking),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneBooking(b)
	s.bookings[b.ID] = cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBooking(b), nil
}

func (s *MemoryStore) ListByRider(ctx context.Context, riderID types.ID, limit int) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Booking
	for _, b := range s.bookings {
		if b.RiderID == riderID {
			out = append(out, *cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Booking
	for _, b := range s.bookings {
		if b.Status != StatusScheduled || b.ScheduledFor == nil {
			continue
		}
		if b.ScheduledFor.Before(from) || b.ScheduledFor.After(to) {
			continue
		}
		out = append(out, *cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(*out[j].ScheduledFor) })
	return out, nil
}

func (s *MemoryStore) CurrentForDriver(ctx context.Context, driverID types.ID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *Booking
	for _, b := range s.bookings {
		if b.DriverID == nil || *b.DriverID != driverID || !b.Status.Held() {
			continue
		}
		if latest == nil || b.CreatedAt.After(latest.CreatedAt) {
			latest = b
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return cloneBooking(latest), nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, driverID *types.ID, logText string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	if to.Held() {
		if driverID != nil {
			d := *driverID
			b.DriverID = &d
		}
	} else {
		b.DriverID = nil
	}
	if logText != "" {
		b.Logs = append(b.Logs, LogEntry{At: s.now(), Text: logText})
	}
	return true, nil
}

func (s *MemoryStore) UpdateDrop(ctx context.Context, id types.ID, from Status, drop Location, distanceKm float64, durationMin int, fare pricing.FareBreakdown, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Drop = drop
	b.DistanceKm = distanceKm
	b.DurationMin = durationMin
	b.Fare = fare
	t := at
	b.LastDropUpdateAt = &t
	return true, nil
}

func (s *MemoryStore) AppendLog(ctx context.Context, id types.ID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.Logs = append(b.Logs, LogEntry{At: s.now(), Text: text})
	return nil
}

func (s *MemoryStore) SetPayment(ctx context.Context, id types.ID, p Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return ErrNotFound
	}
	b.Payment = p
	return nil
}

func cloneBooking(b *Booking) *Booking {
	cp := *b
	if b.DriverID != nil {
		d := *b.DriverID
		cp.DriverID = &d
	}
	if b.ScheduledFor != nil {
		t := *b.ScheduledFor
		cp.ScheduledFor = &t
	}
	if b.LastDropUpdateAt != nil {
		t := *b.LastDropUpdateAt
		cp.LastDropUpdateAt = &t
	}
	cp.Logs = append([]LogEntry(nil), b.Logs...)
	return &cp
}
