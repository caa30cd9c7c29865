// README: Driver aggregate and status definitions.
package driver

import (
	"time"

	"rideflow/internal/types"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusAssigned  Status = "assigned"
	StatusAccepted  Status = "accepted"
	StatusBusy      Status = "busy"
)

type Driver struct {
	ID                types.ID    `json:"id"`
	OwnerID           types.ID    `json:"ownerId"`
	Name              string      `json:"name"`
	Phone             string      `json:"phone"`
	VehicleClass      string      `json:"vehicleClass"`
	Position          types.Point `json:"position"`
	Status            Status      `json:"status"`
	AssignedBookingID *types.ID   `json:"assignedBookingId,omitempty"`
	LastAssignedAt    *time.Time  `json:"lastAssignedAt,omitempty"`
	TotalEarnings     float64     `json:"totalEarnings"`
	TotalRides        int         `json:"totalRides"`
	CreatedAt         time.Time   `json:"createdAt"`
}

// Held reports whether a driver in this status holds a booking.
func (s Status) Held() bool {
	return s == StatusAssigned || s == StatusAccepted || s == StatusBusy
}
