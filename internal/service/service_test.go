package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/external"
	"cinebook/internal/messaging"
	"cinebook/internal/models"
)

type testEnv struct {
	services  *Services
	showtimes *fakeShowtimeStore
	bookings  *fakeBookingStore
	payments  *fakePaymentStore
	gateway   *fakeGateway
	catalog   *fakeCatalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	showtimes := newFakeShowtimeStore()
	bookings := newFakeBookingStore(showtimes)
	payments := &fakePaymentStore{}
	gateway := newFakeGateway()
	catalog := &fakeCatalog{movies: map[string]external.CatalogMovie{}}

	nats, err := messaging.NewNATSClient(messaging.Config{Enabled: false})
	require.NoError(t, err)

	services := Wire(showtimes, bookings, payments, nats, gateway, catalog, Policy{
		HoldTTL:  time.Hour,
		Currency: "USD",
	})

	return &testEnv{
		services:  services,
		showtimes: showtimes,
		bookings:  bookings,
		payments:  payments,
		gateway:   gateway,
		catalog:   catalog,
	}
}

func (e *testEnv) seedShowtime(t *testing.T, seats int) *models.Showtime {
	t.Helper()

	st := &models.Showtime{
		MovieID:        "tt0133093",
		ShowDate:       time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
		ShowTime:       "18:00",
		ScreenFormat:   models.FormatIMAX,
		TotalSeats:     seats,
		AvailableSeats: seats,
		Price:          2000,
	}
	created, err := e.showtimes.CreateIfAbsent(context.Background(), st)
	require.NoError(t, err)
	require.True(t, created)
	return st
}

func (e *testEnv) hold(t *testing.T, userID string, st *models.Showtime, seatIDs ...string) *models.CreateBookingResponse {
	t.Helper()

	resp, err := e.services.Bookings.Create(context.Background(), userID, &models.CreateBookingRequest{
		ShowtimeID: st.ID,
		MovieID:    st.MovieID,
		ShowDate:   st.ShowDate,
		ShowTime:   st.ShowTime,
		SeatIDs:    seatIDs,
		Price:      st.Price,
	})
	require.NoError(t, err)
	return resp
}

func (e *testEnv) available(t *testing.T, id int64) int {
	t.Helper()

	st, err := e.showtimes.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, st)
	return st.AvailableSeats
}

func TestCreateBookingHoldsSeats(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)

	resp := env.hold(t, "alice", st, "A1", "A2", "A3")

	require.Len(t, resp.Bookings, 3)
	for _, b := range resp.Bookings {
		assert.Equal(t, models.StatusPendingPayment, b.Status)
		assert.Equal(t, "alice", b.UserID)
		assert.NotZero(t, b.ID)
	}
	assert.Equal(t, 7, env.available(t, st.ID))
}

func TestCreateBookingSeatConflict(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	env.hold(t, "alice", st, "A1")

	_, err := env.services.Bookings.Create(context.Background(), "bob", &models.CreateBookingRequest{
		ShowtimeID: st.ID, MovieID: st.MovieID, ShowDate: st.ShowDate, ShowTime: st.ShowTime,
		SeatIDs: []string{"A1", "A2"}, Price: st.Price,
	})

	require.ErrorIs(t, err, apperrors.ErrSeatConflict)
	// The losing batch must not leak a partial hold.
	assert.Equal(t, 9, env.available(t, st.ID))
}

func TestCreateBookingSoldOut(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 2)
	env.hold(t, "alice", st, "A1", "A2")

	_, err := env.services.Bookings.Create(context.Background(), "bob", &models.CreateBookingRequest{
		ShowtimeID: st.ID, MovieID: st.MovieID, ShowDate: st.ShowDate, ShowTime: st.ShowTime,
		SeatIDs: []string{"B1"}, Price: st.Price,
	})

	require.ErrorIs(t, err, apperrors.ErrSoldOut)
	assert.Equal(t, 0, env.available(t, st.ID))
}

func TestCreateBookingValidation(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)

	cases := []struct {
		name string
		mut  func(*models.CreateBookingRequest)
	}{
		{"no seats", func(r *models.CreateBookingRequest) { r.SeatIDs = nil }},
		{"duplicate seats", func(r *models.CreateBookingRequest) { r.SeatIDs = []string{"A1", "A1"} }},
		{"bad seat label", func(r *models.CreateBookingRequest) { r.SeatIDs = []string{"seat one"} }},
		{"bad date", func(r *models.CreateBookingRequest) { r.ShowDate = "05.09.2026" }},
		{"bad time", func(r *models.CreateBookingRequest) { r.ShowTime = "6pm" }},
		{"zero price", func(r *models.CreateBookingRequest) { r.Price = 0 }},
		{"too many seats", func(r *models.CreateBookingRequest) {
			r.SeatIDs = []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "B1", "B2"}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := &models.CreateBookingRequest{
				ShowtimeID: st.ID, MovieID: st.MovieID, ShowDate: st.ShowDate,
				ShowTime: st.ShowTime, SeatIDs: []string{"A1"}, Price: st.Price,
			}
			tc.mut(req)
			_, err := env.services.Bookings.Create(context.Background(), "alice", req)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}

	// Nothing was deducted by the rejected requests.
	assert.Equal(t, 10, env.available(t, st.ID))
}

func TestCreateBookingUnknownShowtime(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Bookings.Create(context.Background(), "alice", &models.CreateBookingRequest{
		ShowtimeID: 999, MovieID: "m", ShowDate: "2026-09-05", ShowTime: "18:00",
		SeatIDs: []string{"A1"}, Price: 1000,
	})

	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCheckoutAttachesSession(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1", "A2")

	ids := []int64{held.Bookings[0].ID, held.Bookings[1].ID}
	resp, err := env.services.Bookings.Checkout(context.Background(), "alice", &models.CheckoutRequest{BookingIDs: ids})
	require.NoError(t, err)

	assert.Equal(t, int64(4000), resp.Amount)
	assert.Equal(t, "USD", resp.Currency)
	assert.NotEmpty(t, resp.SessionRef)
	assert.NotEmpty(t, resp.PaymentURL)

	rows, err := env.bookings.GetByIDs(context.Background(), ids)
	require.NoError(t, err)
	for _, b := range rows {
		require.NotNil(t, b.SessionRef)
		assert.Equal(t, resp.SessionRef, *b.SessionRef)
	}
}

func TestCheckoutRejectsForeignBookings(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1")

	_, err := env.services.Bookings.Checkout(context.Background(), "mallory", &models.CheckoutRequest{
		BookingIDs: []int64{held.Bookings[0].ID},
	})

	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCheckoutRejectsSecondSession(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1")
	ids := []int64{held.Bookings[0].ID}

	_, err := env.services.Bookings.Checkout(context.Background(), "alice", &models.CheckoutRequest{BookingIDs: ids})
	require.NoError(t, err)

	_, err = env.services.Bookings.Checkout(context.Background(), "alice", &models.CheckoutRequest{BookingIDs: ids})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCheckoutGatewayDown(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1")

	env.gateway.createErr = context.DeadlineExceeded

	_, err := env.services.Bookings.Checkout(context.Background(), "alice", &models.CheckoutRequest{
		BookingIDs: []int64{held.Bookings[0].ID},
	})

	require.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
	// The hold survives; the user can retry checkout.
	assert.Equal(t, 9, env.available(t, st.ID))
}

func checkout(t *testing.T, env *testEnv, userID string, ids []int64) string {
	t.Helper()

	resp, err := env.services.Bookings.Checkout(context.Background(), userID, &models.CheckoutRequest{BookingIDs: ids})
	require.NoError(t, err)
	return resp.SessionRef
}

func TestWebhookConfirmsSession(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1", "A2")
	ref := checkout(t, env, "alice", []int64{held.Bookings[0].ID, held.Bookings[1].ID})

	err := env.services.Reconciler.HandleNotification(context.Background(), &models.PaymentNotificationPayload{
		SessionRef: ref, Status: "COMPLETED", TxnRef: "txn-1", Amount: 4000, Currency: "USD",
	})
	require.NoError(t, err)

	rows, err := env.bookings.GetBySession(context.Background(), ref)
	require.NoError(t, err)
	for _, b := range rows {
		assert.Equal(t, models.StatusConfirmed, b.Status)
		require.NotNil(t, b.TxnRef)
		assert.Equal(t, "txn-1", *b.TxnRef)
	}

	// Confirmed seats stay committed.
	assert.Equal(t, 8, env.available(t, st.ID))
}

func TestWebhookReplayIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1")
	ref := checkout(t, env, "alice", []int64{held.Bookings[0].ID})

	payload := &models.PaymentNotificationPayload{SessionRef: ref, Status: "COMPLETED", TxnRef: "txn-1"}
	require.NoError(t, env.services.Reconciler.HandleNotification(context.Background(), payload))
	require.NoError(t, env.services.Reconciler.HandleNotification(context.Background(), payload))

	rows, err := env.bookings.GetBySession(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, rows[0].Status)
	assert.Equal(t, 9, env.available(t, st.ID))

	// Every delivery lands in the audit trail.
	events, err := env.payments.ListBySession(context.Background(), ref)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestWebhookFailureReleasesSeatsOnce(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1", "A2")
	ref := checkout(t, env, "alice", []int64{held.Bookings[0].ID, held.Bookings[1].ID})

	payload := &models.PaymentNotificationPayload{SessionRef: ref, Status: "REJECTED"}
	require.NoError(t, env.services.Reconciler.HandleNotification(context.Background(), payload))
	require.NoError(t, env.services.Reconciler.HandleNotification(context.Background(), payload))

	rows, err := env.bookings.GetBySession(context.Background(), ref)
	require.NoError(t, err)
	for _, b := range rows {
		assert.Equal(t, models.StatusFailed, b.Status)
	}

	// Restored on the first delivery only.
	assert.Equal(t, 10, env.available(t, st.ID))
}

func TestWebhookUnknownStatusRecordsWithoutTransition(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1")
	ref := checkout(t, env, "alice", []int64{held.Bookings[0].ID})

	err := env.services.Reconciler.HandleNotification(context.Background(), &models.PaymentNotificationPayload{
		SessionRef: ref, Status: "PROCESSING",
	})
	require.NoError(t, err)

	rows, err := env.bookings.GetBySession(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingPayment, rows[0].Status)

	events, err := env.payments.ListBySession(context.Background(), ref)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestGetBySessionPollsProvider(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1", "A2")
	ref := checkout(t, env, "alice", []int64{held.Bookings[0].ID, held.Bookings[1].ID})

	// The webhook never arrives but the provider reports completion.
	env.gateway.setStatus(ref, "COMPLETED")

	group, err := env.services.Bookings.GetBySession(context.Background(), ref)
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, group.Status)
	assert.Equal(t, []string{"A1", "A2"}, group.SeatIDs)
	assert.Equal(t, int64(4000), group.Amount)
}

func TestGetBySessionUnknownRef(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.services.Bookings.GetBySession(context.Background(), "no-such-session")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCancelReleasesSeatsAndClosesSession(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1", "A2")
	ids := []int64{held.Bookings[0].ID, held.Bookings[1].ID}
	ref := checkout(t, env, "alice", ids)

	resp, err := env.services.Bookings.Cancel(context.Background(), "alice", &models.CancelBookingsRequest{BookingIDs: ids})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Cancelled)
	assert.Equal(t, 10, env.available(t, st.ID))
	assert.Contains(t, env.gateway.cancelled, ref)

	// A second cancel finds nothing live.
	_, err = env.services.Bookings.Cancel(context.Background(), "alice", &models.CancelBookingsRequest{BookingIDs: ids})
	require.ErrorIs(t, err, apperrors.ErrNothingToCancel)
	assert.Equal(t, 10, env.available(t, st.ID))
}

func TestCancelIgnoresForeignBookings(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1")

	_, err := env.services.Bookings.Cancel(context.Background(), "mallory", &models.CancelBookingsRequest{
		BookingIDs: []int64{held.Bookings[0].ID},
	})

	require.ErrorIs(t, err, apperrors.ErrNothingToCancel)
	assert.Equal(t, 9, env.available(t, st.ID))
}

func TestCancelConfirmedBooking(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1")
	ids := []int64{held.Bookings[0].ID}
	ref := checkout(t, env, "alice", ids)

	require.NoError(t, env.services.Reconciler.HandleNotification(context.Background(), &models.PaymentNotificationPayload{
		SessionRef: ref, Status: "COMPLETED",
	}))

	resp, err := env.services.Bookings.Cancel(context.Background(), "alice", &models.CancelBookingsRequest{BookingIDs: ids})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Cancelled)
	assert.Equal(t, 10, env.available(t, st.ID))
}

func TestSweeperExpiresOverdueHolds(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1", "A2")

	// Age the holds past the TTL.
	env.bookings.mu.Lock()
	for _, b := range held.Bookings {
		env.bookings.rows[b.ID].CreatedAt = time.Now().Add(-2 * time.Hour)
	}
	env.bookings.mu.Unlock()

	expired, err := env.services.Sweeper.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, expired)
	assert.Equal(t, 10, env.available(t, st.ID))

	// Second sweep finds nothing; availability is not double-restored.
	expired, err = env.services.Sweeper.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)
	assert.Equal(t, 10, env.available(t, st.ID))
}

func TestSweeperExpiresStartedShows(t *testing.T) {
	env := newTestEnv(t)
	st := &models.Showtime{
		MovieID:        "tt0133093",
		ShowDate:       "2020-01-01",
		ShowTime:       "18:00",
		ScreenFormat:   models.Format2D,
		TotalSeats:     10,
		AvailableSeats: 10,
		Price:          1200,
	}
	created, err := env.showtimes.CreateIfAbsent(context.Background(), st)
	require.NoError(t, err)
	require.True(t, created)

	// A fresh hold, well inside the TTL, on a show that has already begun.
	env.hold(t, "alice", st, "A1")

	expired, err := env.services.Sweeper.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 10, env.available(t, st.ID))
}

func TestSweeperKeepsFreshHolds(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	env.hold(t, "alice", st, "A1")

	expired, err := env.services.Sweeper.ExpireDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)
	assert.Equal(t, 9, env.available(t, st.ID))
}

func TestExpiredSeatCanBeRebooked(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1")

	env.bookings.mu.Lock()
	env.bookings.rows[held.Bookings[0].ID].CreatedAt = time.Now().Add(-2 * time.Hour)
	env.bookings.mu.Unlock()

	_, err := env.services.Sweeper.ExpireDue(context.Background())
	require.NoError(t, err)

	// The freed seat is claimable by another user.
	resp := env.hold(t, "bob", st, "A1")
	assert.Equal(t, "bob", resp.Bookings[0].UserID)
	assert.Equal(t, 9, env.available(t, st.ID))
}

func TestSeatMapShowsLiveClaims(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "B2", "A1")
	ref := checkout(t, env, "alice", []int64{held.Bookings[0].ID})
	require.NoError(t, env.services.Reconciler.HandleNotification(context.Background(), &models.PaymentNotificationPayload{
		SessionRef: ref, Status: "COMPLETED",
	}))

	entries, err := env.services.Bookings.SeatMap(context.Background(), st.MovieID, st.ShowDate, st.ShowTime)
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "A1", entries[0].SeatID)
	assert.Equal(t, "B2", entries[1].SeatID)
}

func TestSeatMapSweepsBeforeReading(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1")

	env.bookings.mu.Lock()
	env.bookings.rows[held.Bookings[0].ID].CreatedAt = time.Now().Add(-2 * time.Hour)
	env.bookings.mu.Unlock()

	entries, err := env.services.Bookings.SeatMap(context.Background(), st.MovieID, st.ShowDate, st.ShowTime)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListForUserGroupsBySession(t *testing.T) {
	env := newTestEnv(t)
	st := env.seedShowtime(t, 10)
	held := env.hold(t, "alice", st, "A1", "A2")
	checkout(t, env, "alice", []int64{held.Bookings[0].ID, held.Bookings[1].ID})
	env.hold(t, "bob", st, "C1")

	groups, err := env.services.Bookings.ListForUser(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"A1", "A2"}, groups[0].SeatIDs)

	groups, err = env.services.Bookings.ListForUser(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"C1"}, groups[0].SeatIDs)
}
