// README: Booking aggregate, status machine, and fare/payment blocks.
package booking

import (
	"time"

	"rideflow/internal/modules/pricing"
	"rideflow/internal/types"
)

type Status string

const (
	StatusScheduled         Status = "scheduled"
	StatusPendingAssignment Status = "pending_assignment"
	StatusAssigned          Status = "assigned"
	StatusAccepted          Status = "accepted"
	StatusRunning           Status = "running"
	StatusCompleted         Status = "completed"
	StatusCancelled         Status = "cancelled"
)

// Location pairs a human-readable address with coordinates.
type Location struct {
	Address string      `json:"address"`
	Coords  types.Point `json:"coords"`
}

// Payment is the booking's payment block. Status is one of
// "pending" / "paid"; ProviderRef is set once an intent exists.
type Payment struct {
	Method      string `json:"method"`
	Status      string `json:"status"`
	ProviderRef string `json:"providerRef,omitempty"`
}

// LogEntry records a lifecycle event on the booking's ordered log.
type LogEntry struct {
	At   time.Time `json:"ts"`
	Text string    `json:"text"`
}

type Booking struct {
	ID               types.ID              `json:"id"`
	RiderID          types.ID              `json:"riderId"`
	Pickup           Location              `json:"pickup"`
	Drop             Location              `json:"drop"`
	RideType         string                `json:"rideType"`
	DistanceKm       float64               `json:"distanceKm"`
	DurationMin      int                   `json:"durationMin"`
	Fare             pricing.FareBreakdown `json:"fare"`
	Payment          Payment               `json:"payment"`
	Status           Status                `json:"status"`
	ScheduledFor     *time.Time            `json:"scheduledFor,omitempty"`
	DriverID         *types.ID             `json:"driverId,omitempty"`
	Logs             []LogEntry            `json:"logs"`
	LastDropUpdateAt *time.Time            `json:"lastDropUpdateAt,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
}

// heldStatuses are the statuses during which a booking references a driver.
var heldStatuses = map[Status]bool{
	StatusAssigned: true,
	StatusAccepted: true,
	StatusRunning:  true,
}

// Held reports whether a booking in this status holds a driver.
func (s Status) Held() bool { return heldStatuses[s] }

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusCancelled }

// AllowedTransitions represents the booking state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusScheduled:         {StatusPendingAssignment, StatusCancelled},
	StatusPendingAssignment: {StatusAssigned, StatusCancelled},
	StatusAssigned:          {StatusAccepted, StatusPendingAssignment, StatusCancelled},
	StatusAccepted:          {StatusRunning, StatusCancelled},
	StatusRunning:           {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
