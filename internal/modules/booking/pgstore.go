// README: Booking store backed by PostgreSQL.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rideflow/internal/modules/pricing"
	"rideflow/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const bookingColumns = `
	id, rider_id,
	pickup_address, pickup_lat, pickup_lng,
	drop_address, drop_lat, drop_lng,
	ride_type, distance_km, duration_min,
	fare_base, fare_distance, fare_time, fare_surge, fare_total,
	payment_method, payment_status, payment_ref,
	status, scheduled_for, driver_id, last_drop_update_at, created_at`

// Create inserts the booking and its initial log entries atomically; a
// booking must never become visible with a partial log trail.
func (s *PGStore) Create(ctx context.Context, b *Booking) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO bookings (
			id, rider_id,
			pickup_address, pickup_lat, pickup_lng,
			drop_address, drop_lat, drop_lng,
			ride_type, distance_km, duration_min,
			fare_base, fare_distance, fare_time, fare_surge, fare_total,
			payment_method, payment_status, payment_ref,
			status, scheduled_for, driver_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		)`,
		string(b.ID), string(b.RiderID),
		b.Pickup.Address, b.Pickup.Coords.Lat, b.Pickup.Coords.Lng,
		b.Drop.Address, b.Drop.Coords.Lat, b.Drop.Coords.Lng,
		b.RideType, b.DistanceKm, b.DurationMin,
		b.Fare.Base, b.Fare.Distance, b.Fare.Time, b.Fare.Surge, b.Fare.Total,
		b.Payment.Method, b.Payment.Status, nullIfEmpty(b.Payment.ProviderRef),
		string(b.Status), b.ScheduledFor, idPtrToStringPtr(b.DriverID), b.CreatedAt,
	)
	if err != nil {
		return err
	}
	for _, entry := range b.Logs {
		_, err := tx.Exec(ctx,
			`INSERT INTO booking_logs (booking_id, ts, text) VALUES ($1, $2, $3)`,
			string(b.ID), entry.At, entry.Text)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, string(id))
	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadLogs(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PGStore) ListByRider(ctx context.Context, riderID types.ID, limit int) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE rider_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, string(riderID), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (s *PGStore) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]Booking, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE status = $1 AND scheduled_for >= $2 AND scheduled_for <= $3
		ORDER BY scheduled_for`, string(StatusScheduled), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (s *PGStore) CurrentForDriver(ctx context.Context, driverID types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE driver_id = $1 AND status IN ($2, $3, $4)
		ORDER BY created_at DESC
		LIMIT 1`,
		string(driverID), string(StatusAssigned), string(StatusAccepted), string(StatusRunning))
	b, err := scanBooking(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadLogs(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, driverID *types.ID, logText string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    driver_id = CASE WHEN $2 THEN COALESCE($3, driver_id) ELSE NULL END
		WHERE id = $4 AND status = $5`,
		string(to), to.Held(), idPtrToStringPtr(driverID), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}
	if logText != "" {
		_ = s.AppendLog(ctx, id, logText)
	}
	return true, nil
}

func (s *PGStore) UpdateDrop(ctx context.Context, id types.ID, from Status, drop Location, distanceKm float64, durationMin int, fare pricing.FareBreakdown, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET drop_address = $1, drop_lat = $2, drop_lng = $3,
		    distance_km = $4, duration_min = $5,
		    fare_base = $6, fare_distance = $7, fare_time = $8, fare_surge = $9, fare_total = $10,
		    last_drop_update_at = $11
		WHERE id = $12 AND status = $13`,
		drop.Address, drop.Coords.Lat, drop.Coords.Lng,
		distanceKm, durationMin,
		fare.Base, fare.Distance, fare.Time, fare.Surge, fare.Total,
		at, string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AppendLog(ctx context.Context, id types.ID, text string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO booking_logs (booking_id, ts, text) VALUES ($1, now(), $2)`,
		string(id), text)
	return err
}

func (s *PGStore) SetPayment(ctx context.Context, id types.ID, p Payment) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET payment_method = $1, payment_status = $2, payment_ref = $3
		WHERE id = $4`,
		p.Method, p.Status, nullIfEmpty(p.ProviderRef), string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) loadLogs(ctx context.Context, b *Booking) error {
	rows, err := s.db.Query(ctx,
		`SELECT ts, text FROM booking_logs WHERE booking_id = $1 ORDER BY id`, string(b.ID))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var entry LogEntry
		if err := rows.Scan(&entry.At, &entry.Text); err != nil {
			return err
		}
		b.Logs = append(b.Logs, entry)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	var paymentRef, driverID *string
	err := row.Scan(
		&b.ID, &b.RiderID,
		&b.Pickup.Address, &b.Pickup.Coords.Lat, &b.Pickup.Coords.Lng,
		&b.Drop.Address, &b.Drop.Coords.Lat, &b.Drop.Coords.Lng,
		&b.RideType, &b.DistanceKm, &b.DurationMin,
		&b.Fare.Base, &b.Fare.Distance, &b.Fare.Time, &b.Fare.Surge, &b.Fare.Total,
		&b.Payment.Method, &b.Payment.Status, &paymentRef,
		&b.Status, &b.ScheduledFor, &driverID, &b.LastDropUpdateAt, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if paymentRef != nil {
		b.Payment.ProviderRef = *paymentRef
	}
	if driverID != nil {
		d := types.ID(*driverID)
		b.DriverID = &d
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func nullIfEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func idPtrToStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
