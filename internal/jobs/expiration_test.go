package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebook/internal/messaging"
	"cinebook/internal/models"
	"cinebook/internal/service"
)

type countingStore struct {
	sweeps int32
}

func (c *countingStore) ExpireDue(ctx context.Context, createdBefore time.Time) ([]models.Booking, error) {
	atomic.AddInt32(&c.sweeps, 1)
	return nil, nil
}

func (c *countingStore) CreateBatch(ctx context.Context, bookings []*models.Booking) error { return nil }
func (c *countingStore) AttachSession(ctx context.Context, ids []int64, ref string) error  { return nil }
func (c *countingStore) GetByIDs(ctx context.Context, ids []int64) ([]models.Booking, error) {
	return nil, nil
}
func (c *countingStore) GetByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return nil, nil
}
func (c *countingStore) GetBySession(ctx context.Context, ref string) ([]models.Booking, error) {
	return nil, nil
}
func (c *countingStore) GetLiveForShowtime(ctx context.Context, movieID, showDate, showTime string) ([]models.Booking, error) {
	return nil, nil
}
func (c *countingStore) TransitionBySession(ctx context.Context, ref string, to models.BookingStatus, txnRef *string) ([]models.Booking, error) {
	return nil, nil
}
func (c *countingStore) CancelOwned(ctx context.Context, userID string, ids []int64) ([]models.Booking, error) {
	return nil, nil
}

func TestExpirationJobSweepsOnSchedule(t *testing.T) {
	store := &countingStore{}
	nats, err := messaging.NewNATSClient(messaging.Config{Enabled: false})
	require.NoError(t, err)

	sweeper := service.NewSweeperService(store, nats, time.Hour)

	job := NewBookingExpirationJob(sweeper, 20*time.Millisecond)
	job.Start()

	// First run is immediate; the ticker adds more.
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&store.sweeps) >= 3
	}, time.Second, 5*time.Millisecond)

	job.Stop()

	// Let any in-flight sweep finish before sampling.
	time.Sleep(50 * time.Millisecond)
	settled := atomic.LoadInt32(&store.sweeps)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, atomic.LoadInt32(&store.sweeps), "no sweeps after Stop")
}
