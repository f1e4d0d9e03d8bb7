package service

import (
	"context"
	"fmt"
	"time"

	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/metrics"
	"cinebook/internal/models"
)

// SweeperService expires overdue pending holds and releases their seats.
// A hold is overdue once its screening has started or once it has sat
// unpaid past the hold TTL, whichever comes first.
type SweeperService struct {
	bookings   BookingStore
	natsClient *messaging.NATSClient
	holdTTL    time.Duration
}

func NewSweeperService(bookings BookingStore, natsClient *messaging.NATSClient, holdTTL time.Duration) *SweeperService {
	return &SweeperService{bookings: bookings, natsClient: natsClient, holdTTL: holdTTL}
}

// ExpireDue runs one sweep and returns how many holds were expired.
// Safe to run concurrently: the guarded update means each row is
// expired by exactly one sweep.
func (s *SweeperService) ExpireDue(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.holdTTL)

	expired, err := s.bookings.ExpireDue(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire bookings: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	metrics.BookingsExpired.Add(float64(len(expired)))

	for _, b := range expired {
		warnPublish(ctx, s.natsClient.Publish(models.EventBookingExpired, models.BookingExpiredEvent{
			BookingID:  b.ID,
			ShowtimeID: b.ShowtimeID,
			Reason:     "hold window elapsed",
			Timestamp:  time.Now(),
		}), models.EventBookingExpired)
	}

	logger.WithContext(ctx).Info("Expired overdue bookings", "count", len(expired))

	return len(expired), nil
}
