package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/metrics"
	"cinebook/internal/models"
)

// ReconcilerService applies payment provider outcomes to booking rows.
// It is the only writer of the CONFIRMED, FAILED and EXPIRED-via-payment
// transitions; everything it does is idempotent, so webhook replays and
// poll races settle on the same final state.
type ReconcilerService struct {
	bookings   BookingStore
	payments   PaymentStore
	gateway    PaymentGateway
	natsClient *messaging.NATSClient
}

func NewReconcilerService(bookings BookingStore, payments PaymentStore, gateway PaymentGateway, natsClient *messaging.NATSClient) *ReconcilerService {
	return &ReconcilerService{
		bookings:   bookings,
		payments:   payments,
		gateway:    gateway,
		natsClient: natsClient,
	}
}

// outcomeStatus maps a provider-reported status string to a booking
// lifecycle target. Unknown statuses are recorded but apply nothing.
func outcomeStatus(providerStatus string) (models.BookingStatus, bool) {
	switch strings.ToUpper(providerStatus) {
	case "COMPLETED", "CONFIRMED", "PAID", "SUCCESS":
		return models.StatusConfirmed, true
	case "EXPIRED":
		return models.StatusExpired, true
	case "FAILED", "REJECTED", "CANCELLED", "DECLINED":
		return models.StatusFailed, true
	default:
		return "", false
	}
}

// ApplyOutcome moves every still-pending row of the session to the
// target status. Rows already terminal are untouched, which is what
// makes replayed notifications harmless.
func (r *ReconcilerService) ApplyOutcome(ctx context.Context, sessionRef string, to models.BookingStatus, txnRef *string) (int, error) {
	updated, err := r.bookings.TransitionBySession(ctx, sessionRef, to, txnRef)
	if err != nil {
		return 0, fmt.Errorf("failed to transition session %s: %w", sessionRef, err)
	}
	if len(updated) == 0 {
		return 0, nil
	}

	warnPublish(ctx, r.natsClient.Publish(eventForStatus(to), models.BookingStatusEvent{
		SessionRef: sessionRef,
		Status:     to,
		Count:      len(updated),
		Timestamp:  time.Now(),
	}), eventForStatus(to))

	logger.WithContext(ctx).Info("Payment outcome applied",
		"session_ref", sessionRef,
		"status", to,
		"bookings", len(updated))

	return len(updated), nil
}

// RecordEvent appends the provider event to the payment audit trail.
// Recording always happens, including for unknown statuses and for
// sessions whose rows were already terminal.
func (r *ReconcilerService) RecordEvent(ctx context.Context, payload *models.PaymentNotificationPayload) error {
	p := &models.Payment{
		SessionRef: payload.SessionRef,
		Amount:     payload.Amount,
		Currency:   payload.Currency,
		Status:     strings.ToUpper(payload.Status),
		Method:     payload.Method,
	}
	if payload.TxnRef != "" {
		txn := payload.TxnRef
		p.TxnRef = &txn
	}

	if err := r.payments.Record(ctx, p); err != nil {
		return fmt.Errorf("failed to record payment event: %w", err)
	}

	metrics.PaymentEvents.WithLabelValues(p.Status).Inc()

	warnPublish(ctx, r.natsClient.Publish(models.EventPaymentRecorded, models.PaymentRecordedEvent{
		SessionRef: p.SessionRef,
		Status:     p.Status,
		Amount:     p.Amount,
		Timestamp:  time.Now(),
	}), models.EventPaymentRecorded)

	return nil
}

// HandleNotification processes a verified webhook payload: record first,
// then apply whatever outcome the status maps to.
func (r *ReconcilerService) HandleNotification(ctx context.Context, payload *models.PaymentNotificationPayload) error {
	if payload.SessionRef == "" {
		return fmt.Errorf("%w: sessionRef is required", apperrors.ErrValidation)
	}

	if err := r.RecordEvent(ctx, payload); err != nil {
		return err
	}

	to, known := outcomeStatus(payload.Status)
	if !known {
		logger.WithContext(ctx).Warn("Unknown payment status recorded without transition",
			"session_ref", payload.SessionRef,
			"status", payload.Status)
		return nil
	}

	var txnRef *string
	if payload.TxnRef != "" {
		txn := payload.TxnRef
		txnRef = &txn
	}

	_, err := r.ApplyOutcome(ctx, payload.SessionRef, to, txnRef)
	return err
}

// SyncBySession polls the provider for the session's current state and
// applies it. Used as the fallback when the success/fail redirect lands
// before the webhook does.
func (r *ReconcilerService) SyncBySession(ctx context.Context, sessionRef string) error {
	state, err := r.gateway.CheckSession(ctx, sessionRef)
	if err != nil {
		return fmt.Errorf("%w: session check failed: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	to, known := outcomeStatus(state.Status)
	if !known {
		// Still in progress on the provider side.
		return nil
	}

	var txnRef *string
	if state.TxnRef != "" {
		txn := state.TxnRef
		txnRef = &txn
	}

	applied, err := r.ApplyOutcome(ctx, sessionRef, to, txnRef)
	if err != nil {
		return err
	}
	if applied > 0 {
		metrics.PaymentEvents.WithLabelValues(strings.ToUpper(state.Status)).Inc()
	}

	return nil
}

func eventForStatus(s models.BookingStatus) string {
	switch s {
	case models.StatusConfirmed:
		return models.EventBookingConfirmed
	case models.StatusFailed:
		return models.EventBookingFailed
	case models.StatusExpired:
		return models.EventBookingExpired
	case models.StatusCancelled:
		return models.EventBookingCancelled
	default:
		return "booking.updated"
	}
}
