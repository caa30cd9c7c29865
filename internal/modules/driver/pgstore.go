// README: Driver store backed by PostgreSQL.
package driver

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rideflow/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const driverColumns = `
	id, owner_id, name, phone, vehicle_class,
	lat, lng, status, assigned_booking_id, last_assigned_at,
	total_earnings, total_rides, created_at`

func (s *PGStore) Create(ctx context.Context, d *Driver) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (
			id, owner_id, name, phone, vehicle_class,
			lat, lng, status, total_earnings, total_rides, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(d.ID), string(d.OwnerID), d.Name, d.Phone, d.VehicleClass,
		d.Position.Lat, d.Position.Lng, string(d.Status),
		d.TotalEarnings, d.TotalRides, d.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrPhoneExists
	}
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, string(id))
	return scanDriver(row)
}

func (s *PGStore) UpdateLocation(ctx context.Context, id types.ID, pos types.Point) (*Driver, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE drivers SET lat = $1, lng = $2
		WHERE id = $3
		RETURNING `+driverColumns, pos.Lat, pos.Lng, string(id))
	return scanDriver(row)
}

func (s *PGStore) Claim(ctx context.Context, id, bookingID types.ID, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET status = $1, assigned_booking_id = $2, last_assigned_at = $3
		WHERE id = $4 AND status = $5`,
		string(StatusAssigned), string(bookingID), at, string(id), string(StatusAvailable),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) Advance(ctx context.Context, id, bookingID types.ID, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET status = $1
		WHERE id = $2 AND status = $3 AND assigned_booking_id = $4`,
		string(to), string(id), string(from), string(bookingID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) Release(ctx context.Context, id, bookingID types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET status = $1, assigned_booking_id = NULL, last_assigned_at = NULL
		WHERE id = $2 AND assigned_booking_id = $3
		  AND status IN ($4, $5, $6)`,
		string(StatusAvailable), string(id), string(bookingID),
		string(StatusAssigned), string(StatusAccepted), string(StatusBusy),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) FinishRide(ctx context.Context, id, bookingID types.ID, fareTotal float64) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE drivers
		SET status = $1, assigned_booking_id = NULL, last_assigned_at = NULL,
		    total_earnings = total_earnings + $2, total_rides = total_rides + 1
		WHERE id = $3 AND status = $4 AND assigned_booking_id = $5`,
		string(StatusAvailable), fareTotal, string(id), string(StatusBusy), string(bookingID),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) ListAssignedBefore(ctx context.Context, cutoff time.Time) ([]Driver, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+driverColumns+`
		FROM drivers
		WHERE status = $1 AND last_assigned_at < $2`,
		string(StatusAssigned), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDriver(row rowScanner) (*Driver, error) {
	var d Driver
	var assignedBookingID *string
	err := row.Scan(
		&d.ID, &d.OwnerID, &d.Name, &d.Phone, &d.VehicleClass,
		&d.Position.Lat, &d.Position.Lng, &d.Status, &assignedBookingID, &d.LastAssignedAt,
		&d.TotalEarnings, &d.TotalRides, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if assignedBookingID != nil {
		b := types.ID(*assignedBookingID)
		d.AssignedBookingID = &b
	}
	return &d, nil
}
