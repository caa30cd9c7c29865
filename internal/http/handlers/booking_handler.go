// README: Rider-facing booking handlers.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rideflow/internal/modules/booking"
	"rideflow/internal/modules/dispatch"
	"rideflow/internal/types"
)

type BookingHandler struct {
	bookings  *booking.Service
	lifecycle *dispatch.Lifecycle
}

func NewBookingHandler(bookings *booking.Service, lifecycle *dispatch.Lifecycle) *BookingHandler {
	return &BookingHandler{bookings: bookings, lifecycle: lifecycle}
}

type locationReq struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func (l locationReq) toLocation() booking.Location {
	return booking.Location{Address: l.Address, Coords: types.Point{Lat: l.Lat, Lng: l.Lng}}
}

type createBookingReq struct {
	RiderID       string      `json:"riderId"`
	Pickup        locationReq `json:"pickup"`
	Drop          locationReq `json:"drop"`
	RideType      string      `json:"rideType"`
	ScheduledFor  *time.Time  `json:"scheduledFor"`
	PaymentMethod string      `json:"paymentMethod"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, drv, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		RiderID:       types.ID(req.RiderID),
		Pickup:        req.Pickup.toLocation(),
		Drop:          req.Drop.toLocation(),
		RideType:      req.RideType,
		ScheduledFor:  req.ScheduledFor,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := gin.H{"booking": b}
	if drv != nil {
		resp["driver"] = drv
	}
	writeJSON(c, http.StatusCreated, resp)
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	list, err := h.bookings.History(c.Request.Context(), types.ID(c.Param("id")), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *BookingHandler) UpdateDestination(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	b, err := h.lifecycle.UpdateDestination(c.Request.Context(), types.ID(c.Param("id")), req.toLocation())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, b)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if err := h.lifecycle.CompleteBooking(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": booking.StatusCompleted})
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	id := types.ID(c.Param("id"))
	if err := h.lifecycle.Cancel(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": booking.StatusCancelled})
}
