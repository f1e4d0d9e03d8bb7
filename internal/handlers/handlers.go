package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cinebook/internal/cache"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/external"
	"cinebook/internal/service"
)

// Handlers держит все HTTP-обработчики API
type Handlers struct {
	services      *service.Services
	paymentClient *external.PaymentClient
	cache         *cache.Client
}

func New(services *service.Services, paymentClient *external.PaymentClient, cacheClient *cache.Client) *Handlers {
	return &Handlers{
		services:      services,
		paymentClient: paymentClient,
		cache:         cacheClient,
	}
}

// handleServiceError maps service-layer sentinels onto HTTP statuses.
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrSeatConflict),
		errors.Is(err, apperrors.ErrSoldOut),
		errors.Is(err, apperrors.ErrNothingToCancel):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUpstreamUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
