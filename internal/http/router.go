// README: HTTP router; wires module services onto the gin engine.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"rideflow/internal/http/handlers"
	"rideflow/internal/http/middleware"
	"rideflow/internal/modules/booking"
	"rideflow/internal/modules/dispatch"
	"rideflow/internal/modules/driver"
	"rideflow/internal/modules/payment"
)

type RouterDeps struct {
	Bookings  *booking.Service
	Drivers   *driver.Service
	Lifecycle *dispatch.Lifecycle
	Payments  *payment.Service
	Log       zerolog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log), middleware.Metrics())

	bookingHandler := handlers.NewBookingHandler(deps.Bookings, deps.Lifecycle)
	driverHandler := handlers.NewDriverHandler(deps.Drivers, deps.Bookings, deps.Lifecycle)
	paymentHandler := handlers.NewPaymentHandler(deps.Payments)

	api := r.Group("/api")
	{
		api.POST("/bookings", bookingHandler.Create)
		api.GET("/bookings/:id", bookingHandler.Get)
		api.POST("/bookings/:id/destination", bookingHandler.UpdateDestination)
		api.POST("/bookings/:id/complete", bookingHandler.Complete)
		api.POST("/bookings/:id/cancel", bookingHandler.Cancel)
		api.GET("/riders/:id/bookings", bookingHandler.History)

		api.POST("/drivers", driverHandler.Register)
		api.PUT("/drivers/:id/location", driverHandler.UpdateLocation)
		api.GET("/drivers/nearby", driverHandler.Nearby)
		api.POST("/drivers/:id/accept", driverHandler.Accept)
		api.POST("/drivers/:id/decline", driverHandler.Decline)
		api.POST("/drivers/:id/start", driverHandler.Start)
		api.POST("/drivers/:id/complete", driverHandler.Complete)
		api.GET("/drivers/:id/booking", driverHandler.CurrentBooking)
		api.GET("/drivers/:id/stats", driverHandler.Stats)

		api.POST("/payments/intent", paymentHandler.CreateIntent)
		api.POST("/payments/verify", paymentHandler.Verify)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
