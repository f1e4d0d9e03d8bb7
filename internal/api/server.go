package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cinebook/internal/config"
	"cinebook/internal/database"
	"cinebook/internal/handlers"
	"cinebook/internal/metrics"
	"cinebook/internal/middleware"
)

// Server wires the router. Everything under /api passes through the
// identity middleware; admin-facing showtime writes share the same
// surface because access control lives upstream.
type Server struct {
	router *gin.Engine
	db     *database.DB
}

func NewServer(cfg *config.Config, db *database.DB, h *handlers.Handlers) *Server {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	s := &Server{router: router, db: db}

	router.GET("/health", s.health)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")
	api.Use(middleware.Identity())
	{
		api.GET("/movies", h.SearchMovies)
		api.GET("/movies/:id", h.GetMovie)

		api.GET("/showtimes", h.ListShowtimes)
		api.POST("/showtimes", h.CreateShowtime)
		api.GET("/showtimes/:id", h.GetShowtime)
		api.PATCH("/showtimes/:id", h.UpdateShowtime)
		api.DELETE("/showtimes/:id", h.DeleteShowtime)
		api.GET("/showtimes/:id/analytics", h.ShowtimeAnalytics)

		api.POST("/bookings", h.CreateBooking)
		api.GET("/bookings", h.ListBookings)
		api.GET("/bookings/seatmap", h.SeatMap)
		api.POST("/bookings/checkout", h.Checkout)
		api.GET("/bookings/session/:ref", h.GetBookingSession)
		api.PATCH("/bookings/cancel", h.CancelBookings)
		api.POST("/bookings/expire", h.ExpireBookings)

		api.POST("/payments/notifications", h.PaymentNotification)
		api.GET("/payments/success", h.PaymentSuccess)
		api.GET("/payments/fail", h.PaymentFail)
	}

	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	check := s.db.HealthCheck(c.Request.Context())

	status := http.StatusOK
	if check.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, check)
}

// HTTPServer builds the http.Server with the configured listen address.
func (s *Server) HTTPServer(cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s.router,
	}
}
