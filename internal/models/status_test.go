package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusLifecycle(t *testing.T) {
	t.Run("pending can reach every outcome", func(t *testing.T) {
		for _, to := range []BookingStatus{StatusConfirmed, StatusFailed, StatusExpired, StatusCancelled} {
			assert.True(t, StatusPendingPayment.CanTransition(to), "pending -> %s", to)
		}
	})

	t.Run("confirmed is cancellable and refundable only", func(t *testing.T) {
		assert.True(t, StatusConfirmed.CanTransition(StatusCancelled))
		assert.True(t, StatusConfirmed.CanTransition(StatusRefunded))
		assert.False(t, StatusConfirmed.CanTransition(StatusPendingPayment))
		assert.False(t, StatusConfirmed.CanTransition(StatusFailed))
		assert.False(t, StatusConfirmed.CanTransition(StatusExpired))
	})

	t.Run("terminal states are absorbing", func(t *testing.T) {
		for _, s := range []BookingStatus{StatusFailed, StatusExpired, StatusCancelled, StatusRefunded} {
			assert.True(t, s.Terminal(), "%s should be terminal", s)
			for _, to := range []BookingStatus{StatusPendingPayment, StatusConfirmed, StatusFailed, StatusExpired, StatusCancelled, StatusRefunded} {
				assert.False(t, s.CanTransition(to), "%s -> %s must be illegal", s, to)
			}
		}
	})

	t.Run("live statuses hold seats", func(t *testing.T) {
		assert.True(t, StatusPendingPayment.Live())
		assert.True(t, StatusConfirmed.Live())
		assert.False(t, StatusExpired.Live())
		assert.False(t, StatusCancelled.Live())
	})

	t.Run("seat release", func(t *testing.T) {
		assert.True(t, StatusFailed.ReleasesSeat())
		assert.True(t, StatusExpired.ReleasesSeat())
		assert.True(t, StatusCancelled.ReleasesSeat())
		assert.False(t, StatusConfirmed.ReleasesSeat())
		assert.False(t, StatusRefunded.ReleasesSeat())
	})
}

func TestStatusWireCodes(t *testing.T) {
	all := []BookingStatus{StatusPendingPayment, StatusConfirmed, StatusFailed, StatusExpired, StatusCancelled, StatusRefunded}

	seen := map[int64]bool{}
	for _, s := range all {
		code := s.Code()
		require.GreaterOrEqual(t, code, int64(0), "status %s has no code", s)
		require.False(t, seen[code], "duplicate code %d", code)
		seen[code] = true

		back, err := StatusFromCode(code)
		require.NoError(t, err)
		assert.Equal(t, s, back)
	}

	_, err := StatusFromCode(42)
	assert.Error(t, err)
}

func TestStatusScanValue(t *testing.T) {
	v, err := StatusConfirmed.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	var s BookingStatus
	require.NoError(t, s.Scan(int64(3)))
	assert.Equal(t, StatusExpired, s)

	assert.Error(t, s.Scan("EXPIRED"))

	_, err = BookingStatus("BOGUS").Value()
	assert.Error(t, err)
}
