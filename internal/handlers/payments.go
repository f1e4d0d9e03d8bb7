package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cinebook/internal/logger"
	"cinebook/internal/models"
)

// PaymentNotification обрабатывает POST /api/payments/notifications -
// webhook от платежного шлюза. Токен проверяется до любой обработки;
// повторная доставка того же события безопасна.
func (h *Handlers) PaymentNotification(c *gin.Context) {
	var payload models.PaymentNotificationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if !h.paymentClient.VerifyNotificationToken(payload.SessionRef, payload.Status, payload.Token) {
		logger.WithContext(c.Request.Context()).Warn("Rejected webhook with bad token",
			"session_ref", payload.SessionRef)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.services.Reconciler.HandleNotification(c.Request.Context(), &payload); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// PaymentSuccess обрабатывает GET /api/payments/success?sessionRef= -
// редирект пользователя со страницы оплаты
func (h *Handlers) PaymentSuccess(c *gin.Context) {
	h.paymentRedirect(c)
}

// PaymentFail обрабатывает GET /api/payments/fail?sessionRef=
func (h *Handlers) PaymentFail(c *gin.Context) {
	h.paymentRedirect(c)
}

// paymentRedirect syncs the session against the provider and returns the
// resulting booking group. The redirect never trusts its own query
// string for the outcome; the provider is the source of truth.
func (h *Handlers) paymentRedirect(c *gin.Context) {
	sessionRef := c.Query("sessionRef")
	if sessionRef == "" {
		sessionRef = c.Query("session_ref")
	}

	group, err := h.services.Bookings.GetBySession(c.Request.Context(), sessionRef)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}
