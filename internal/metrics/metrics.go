// README: Prometheus collectors for dispatch outcomes and HTTP traffic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssignmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rideflow", Name: "assignments_total",
		Help: "Bookings successfully assigned to a driver",
	})
	AssignmentContentionTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rideflow", Name: "assignment_contention_total",
		Help: "Driver claims lost to a concurrent assignment",
	})
	AssignmentNoneTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rideflow", Name: "assignment_none_total",
		Help: "Assignment sweeps that found no claimable driver",
	})
	ActivatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rideflow", Name: "scheduled_activated_total",
		Help: "Scheduled bookings promoted to pending_assignment",
	})
	ReclaimedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rideflow", Name: "assignments_reclaimed_total",
		Help: "Stale driver assignments reclaimed",
	})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rideflow", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rideflow",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
