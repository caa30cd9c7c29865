// README: Driver-facing handlers; registration, location, and ride actions.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rideflow/internal/modules/booking"
	"rideflow/internal/modules/dispatch"
	"rideflow/internal/modules/driver"
	"rideflow/internal/types"
)

type DriverHandler struct {
	drivers   *driver.Service
	bookings  *booking.Service
	lifecycle *dispatch.Lifecycle
}

func NewDriverHandler(drivers *driver.Service, bookings *booking.Service, lifecycle *dispatch.Lifecycle) *DriverHandler {
	return &DriverHandler{drivers: drivers, bookings: bookings, lifecycle: lifecycle}
}

type registerDriverReq struct {
	OwnerID      string `json:"ownerId"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	VehicleClass string `json:"vehicleClass"`
}

func (h *DriverHandler) Register(c *gin.Context) {
	var req registerDriverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.drivers.Register(c.Request.Context(), driver.RegisterCommand{
		OwnerID:      types.ID(req.OwnerID),
		Name:         req.Name,
		Phone:        req.Phone,
		VehicleClass: req.VehicleClass,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, d)
}

type updateLocationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.drivers.UpdateLocation(c.Request.Context(), types.ID(c.Param("id")), types.Point{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, d)
}

func (h *DriverHandler) Nearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(c, http.StatusBadRequest, "lat/lng required")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	class := c.DefaultQuery("vehicleClass", "car")

	list, err := h.drivers.NearbyAvailable(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, class, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"drivers": list})
}

type rideActionReq struct {
	BookingID string `json:"bookingId"`
}

func (h *DriverHandler) rideAction(c *gin.Context, fn func(driverID, bookingID types.ID) error, done booking.Status) {
	var req rideActionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.BookingID == "" {
		writeError(c, http.StatusBadRequest, "bookingId required")
		return
	}
	if err := fn(types.ID(c.Param("id")), types.ID(req.BookingID)); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": done})
}

func (h *DriverHandler) Accept(c *gin.Context) {
	h.rideAction(c, func(d, b types.ID) error {
		return h.lifecycle.Accept(c.Request.Context(), d, b)
	}, booking.StatusAccepted)
}

func (h *DriverHandler) Decline(c *gin.Context) {
	h.rideAction(c, func(d, b types.ID) error {
		return h.lifecycle.Decline(c.Request.Context(), d, b)
	}, booking.StatusPendingAssignment)
}

func (h *DriverHandler) Start(c *gin.Context) {
	h.rideAction(c, func(d, b types.ID) error {
		return h.lifecycle.Start(c.Request.Context(), d, b)
	}, booking.StatusRunning)
}

func (h *DriverHandler) Complete(c *gin.Context) {
	h.rideAction(c, func(d, b types.ID) error {
		return h.lifecycle.CompleteRide(c.Request.Context(), d, b)
	}, booking.StatusCompleted)
}

// CurrentBooking returns the driver's active booking, if any.
func (h *DriverHandler) CurrentBooking(c *gin.Context) {
	b, err := h.bookings.CurrentForDriver(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *DriverHandler) Stats(c *gin.Context) {
	stats, err := h.drivers.StatsFor(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, stats)
}
