package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cinebook/internal/cache"
	"cinebook/internal/models"
)

// ListShowtimes обрабатывает GET /api/showtimes?movie_id=&date_from=&date_to=
func (h *Handlers) ListShowtimes(c *gin.Context) {
	movieID := c.Query("movie_id")
	dateFrom := c.Query("date_from")
	dateTo := c.Query("date_to")

	ctx := c.Request.Context()

	var cacheKey string
	if h.cache != nil && dateFrom != "" && dateTo != "" {
		cacheKey = cache.ShowtimesKey(movieID, dateFrom, dateTo)
		if raw, err := h.cache.GetRaw(ctx, cacheKey); err == nil {
			c.Data(http.StatusOK, "application/json", raw)
			return
		}
	}

	items, err := h.services.Showtimes.List(ctx, movieID, dateFrom, dateTo)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if cacheKey != "" {
		h.cache.Set(ctx, cacheKey, gin.H{"showtimes": items})
	}

	c.JSON(http.StatusOK, gin.H{"showtimes": items})
}

// GetShowtime обрабатывает GET /api/showtimes/:id
func (h *Handlers) GetShowtime(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid showtime id"})
		return
	}

	st, err := h.services.Showtimes.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

// CreateShowtime обрабатывает POST /api/showtimes
func (h *Handlers) CreateShowtime(c *gin.Context) {
	var req models.CreateShowtimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	st, err := h.services.Showtimes.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, st)
}

// UpdateShowtime обрабатывает PATCH /api/showtimes/:id
func (h *Handlers) UpdateShowtime(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid showtime id"})
		return
	}

	var req models.UpdateShowtimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	st, err := h.services.Showtimes.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, st)
}

// DeleteShowtime обрабатывает DELETE /api/showtimes/:id
func (h *Handlers) DeleteShowtime(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid showtime id"})
		return
	}

	if err := h.services.Showtimes.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ShowtimeAnalytics обрабатывает GET /api/showtimes/:id/analytics
func (h *Handlers) ShowtimeAnalytics(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid showtime id"})
		return
	}

	analytics, err := h.services.Showtimes.Analytics(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}
