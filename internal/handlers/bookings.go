package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cinebook/internal/middleware"
	"cinebook/internal/models"
)

// CreateBooking обрабатывает POST /api/bookings - бронь (hold) на места
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	userID := middleware.UserIDFromContext(c.Request.Context())

	resp, err := h.services.Bookings.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// ListBookings обрабатывает GET /api/bookings - брони текущего пользователя
func (h *Handlers) ListBookings(c *gin.Context) {
	userID := middleware.UserIDFromContext(c.Request.Context())

	groups, err := h.services.Bookings.ListForUser(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": groups})
}

// SeatMap обрабатывает GET /api/bookings/seatmap?movie_id=&show_date=&show_time=
func (h *Handlers) SeatMap(c *gin.Context) {
	entries, err := h.services.Bookings.SeatMap(c.Request.Context(),
		c.Query("movie_id"), c.Query("show_date"), c.Query("show_time"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"seats": entries})
}

// Checkout обрабатывает POST /api/bookings/checkout - платежная сессия
func (h *Handlers) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	userID := middleware.UserIDFromContext(c.Request.Context())

	resp, err := h.services.Bookings.Checkout(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetBookingSession обрабатывает GET /api/bookings/session/:ref
func (h *Handlers) GetBookingSession(c *gin.Context) {
	group, err := h.services.Bookings.GetBySession(c.Request.Context(), c.Param("ref"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// CancelBookings обрабатывает PATCH /api/bookings/cancel
func (h *Handlers) CancelBookings(c *gin.Context) {
	var req models.CancelBookingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	userID := middleware.UserIDFromContext(c.Request.Context())

	resp, err := h.services.Bookings.Cancel(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExpireBookings обрабатывает POST /api/bookings/expire - ручной запуск
// освобождения просроченных броней
func (h *Handlers) ExpireBookings(c *gin.Context) {
	expired, err := h.services.Sweeper.ExpireDue(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ExpireResponse{Expired: int64(expired)})
}
