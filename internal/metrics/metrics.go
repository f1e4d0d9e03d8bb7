package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinebook_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_bookings_created_total",
		Help: "Seat holds created.",
	})

	BookingsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_bookings_expired_total",
		Help: "Pending bookings expired by the sweeper.",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_bookings_cancelled_total",
		Help: "Bookings cancelled by users.",
	})

	PaymentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinebook_payment_events_total",
		Help: "Payment provider events processed, by reported outcome.",
	}, []string{"status"})
)

// Handler exposes the default registry for the /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
