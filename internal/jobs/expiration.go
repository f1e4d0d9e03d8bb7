package jobs

import (
	"context"
	"time"

	"cinebook/internal/logger"
	"cinebook/internal/service"
)

// BookingExpirationJob - фоновая задача для освобождения просроченных
// броней. Запускается тикером; первый проход выполняется сразу.
type BookingExpirationJob struct {
	sweeper  *service.SweeperService
	interval time.Duration
	done     chan struct{}
}

func NewBookingExpirationJob(sweeper *service.SweeperService, interval time.Duration) *BookingExpirationJob {
	return &BookingExpirationJob{
		sweeper:  sweeper,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *BookingExpirationJob) Start() {
	logger.Get().Info("Booking expiration job started", "interval", j.interval)

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.run()

		for {
			select {
			case <-ticker.C:
				j.run()
			case <-j.done:
				logger.Get().Info("Booking expiration job stopped")
				return
			}
		}
	}()
}

func (j *BookingExpirationJob) Stop() {
	close(j.done)
}

func (j *BookingExpirationJob) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	expired, err := j.sweeper.ExpireDue(ctx)
	if err != nil {
		logger.Get().Error("Expiration sweep failed", "error", err)
		return
	}
	if expired > 0 {
		logger.Get().Info("Expiration sweep released seats", "expired", expired)
	}
}
