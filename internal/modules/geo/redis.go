// README: Redis GEO index; one GEO key per vehicle class.
package geo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"rideflow/internal/types"
)

const classKeyPrefix = "geo:drivers:%s"

// RedisIndex stores driver positions in per-class Redis GEO sets so the
// nearest-first query and the class filter are a single GEORADIUS call.
type RedisIndex struct {
	redis    *redis.Client
	radiusKm float64
}

func NewRedisIndex(client *redis.Client, radiusKm float64) *RedisIndex {
	return &RedisIndex{redis: client, radiusKm: radiusKm}
}

func (r *RedisIndex) Upsert(ctx context.Context, driverID types.ID, vehicleClass string, pos types.Point) error {
	return r.redis.GeoAdd(ctx, classKey(vehicleClass), &redis.GeoLocation{
		Name:      string(driverID),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

func (r *RedisIndex) Remove(ctx context.Context, driverID types.ID, vehicleClass string) error {
	return r.redis.ZRem(ctx, classKey(vehicleClass), string(driverID)).Err()
}

func (r *RedisIndex) Nearby(ctx context.Context, pos types.Point, vehicleClass string, limit int) ([]Candidate, error) {
	results, err := r.redis.GeoRadius(ctx, classKey(vehicleClass), pos.Lng, pos.Lat, &redis.GeoRadiusQuery{
		Radius:   r.radiusKm,
		Unit:     "km",
		WithDist: true,
		Count:    limit,
		Sort:     "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Candidate, len(results))
	for i, g := range results {
		out[i] = Candidate{DriverID: types.ID(g.Name), DistanceKm: g.Dist}
	}
	return out, nil
}

func classKey(vehicleClass string) string {
	return fmt.Sprintf(classKeyPrefix, vehicleClass)
}
