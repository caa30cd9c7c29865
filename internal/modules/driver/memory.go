// README: In-memory driver store for tests and single-node runs.
package driver

import (
	"context"
	"sync"
	"time"

	"rideflow/internal/types"
)

// MemoryStore implements Store with a mutex-guarded map; each conditional
// update runs atomically under the lock, mirroring the SQL CAS semantics.
type MemoryStore struct {
	mu      sync.Mutex
	drivers map[types.ID]*Driver
	phones  map[string]types.ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drivers: make(map[types.ID]*Driver),
		phones:  make(map[string]types.ID),
	}
}

func (s *MemoryStore) Create(ctx context.Context, d *Driver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.phones[d.Phone]; exists {
		return ErrPhoneExists
	}
	s.phones[d.Phone] = d.ID
	s.drivers[d.ID] = cloneDriver(d)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id types.ID) (*Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDriver(d), nil
}

func (s *MemoryStore) UpdateLocation(ctx context.Context, id types.ID, pos types.Point) (*Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	d.Position = pos
	return cloneDriver(d), nil
}

func (s *MemoryStore) Claim(ctx context.Context, id, bookingID types.ID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok || d.Status != StatusAvailable {
		return false, nil
	}
	b := bookingID
	t := at
	d.Status = StatusAssigned
	d.AssignedBookingID = &b
	d.LastAssignedAt = &t
	return true, nil
}

func (s *MemoryStore) Advance(ctx context.Context, id, bookingID types.ID, from, to Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok || d.Status != from || d.AssignedBookingID == nil || *d.AssignedBookingID != bookingID {
		return false, nil
	}
	d.Status = to
	return true, nil
}

func (s *MemoryStore) Release(ctx context.Context, id, bookingID types.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok || !d.Status.Held() || d.AssignedBookingID == nil || *d.AssignedBookingID != bookingID {
		return false, nil
	}
	d.Status = StatusAvailable
	d.AssignedBookingID = nil
	d.LastAssignedAt = nil
	return true, nil
}

func (s *MemoryStore) FinishRide(ctx context.Context, id, bookingID types.ID, fareTotal float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drivers[id]
	if !ok || d.Status != StatusBusy || d.AssignedBookingID == nil || *d.AssignedBookingID != bookingID {
		return false, nil
	}
	d.Status = StatusAvailable
	d.AssignedBookingID = nil
	d.LastAssignedAt = nil
	d.TotalEarnings += fareTotal
	d.TotalRides++
	return true, nil
}

func (s *MemoryStore) ListAssignedBefore(ctx context.Context, cutoff time.Time) ([]Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Driver
	for _, d := range s.drivers {
		if d.Status != StatusAssigned || d.LastAssignedAt == nil {
			continue
		}
		if d.LastAssignedAt.Before(cutoff) {
			out = append(out, *cloneDriver(d))
		}
	}
	return out, nil
}

func cloneDriver(d *Driver) *Driver {
	cp := *d
	if d.AssignedBookingID != nil {
		b := *d.AssignedBookingID
		cp.AssignedBookingID = &b
	}
	if d.LastAssignedAt != nil {
		t := *d.LastAssignedAt
		cp.LastAssignedAt = &t
	}
	return &cp
}
