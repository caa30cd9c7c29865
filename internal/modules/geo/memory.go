// README: In-memory position index; RWMutex map per vehicle class.
package geo

import (
	"context"
	"sync"

	"rideflow/internal/types"
)

// MemoryIndex is a process-local Index used in tests and single-node
// deployments. Naive scan; the Redis index is the production path.
type MemoryIndex struct {
	mu        sync.RWMutex
	radiusKm  float64
	positions map[string]map[types.ID]types.Point
}

func NewMemoryIndex(radiusKm float64) *MemoryIndex {
	return &MemoryIndex{
		radiusKm:  radiusKm,
		positions: make(map[string]map[types.ID]types.Point),
	}
}

func (m *MemoryIndex) Upsert(ctx context.Context, driverID types.ID, vehicleClass string, pos types.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byClass, ok := m.positions[vehicleClass]
	if !ok {
		byClass = make(map[types.ID]types.Point)
		m.positions[vehicleClass] = byClass
	}
	byClass[driverID] = pos
	return nil
}

func (m *MemoryIndex) Remove(ctx context.Context, driverID types.ID, vehicleClass string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions[vehicleClass], driverID)
	return nil
}

func (m *MemoryIndex) Nearby(ctx context.Context, pos types.Point, vehicleClass string, limit int) ([]Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Candidate, 0, limit)
	for id, p := range m.positions[vehicleClass] {
		d := DistanceKm(pos, p)
		if d > m.radiusKm {
			continue
		}
		out = append(out, Candidate{DriverID: id, DistanceKm: d})
	}
	sortByDistance(out, func(c Candidate) float64 { return c.DistanceKm })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
