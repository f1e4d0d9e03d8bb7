package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/external"
	"cinebook/internal/models"
)

// In-memory stores mirroring the repository semantics: guarded
// transitions, conditional availability adjustments, atomic batch
// inserts. They let the lifecycle logic run without Postgres.

type fakeShowtimeStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Showtime
}

func newFakeShowtimeStore() *fakeShowtimeStore {
	return &fakeShowtimeStore{nextID: 1, rows: map[int64]*models.Showtime{}}
}

func (f *fakeShowtimeStore) CreateIfAbsent(ctx context.Context, st *models.Showtime) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.rows {
		if existing.MovieID == st.MovieID && existing.ShowDate == st.ShowDate &&
			existing.ShowTime == st.ShowTime && existing.ScreenFormat == st.ScreenFormat {
			return false, nil
		}
	}

	st.ID = f.nextID
	f.nextID++
	st.CreatedAt = time.Now()
	st.UpdatedAt = st.CreatedAt
	copied := *st
	f.rows[st.ID] = &copied
	return true, nil
}

func (f *fakeShowtimeStore) ListByMovie(ctx context.Context, movieID, dateFrom, dateTo string) ([]models.Showtime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Showtime
	for _, st := range f.rows {
		if st.MovieID != movieID {
			continue
		}
		if dateFrom != "" && st.ShowDate < dateFrom {
			continue
		}
		if dateTo != "" && st.ShowDate > dateTo {
			continue
		}
		out = append(out, *st)
	}
	return out, nil
}

func (f *fakeShowtimeStore) GetByID(ctx context.Context, id int64) (*models.Showtime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *st
	return &copied, nil
}

func (f *fakeShowtimeStore) Update(ctx context.Context, id int64, req *models.UpdateShowtimeRequest) (*models.Showtime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if req.ShowDate != nil {
		st.ShowDate = *req.ShowDate
	}
	if req.ShowTime != nil {
		st.ShowTime = *req.ShowTime
	}
	if req.ScreenFormat != nil {
		st.ScreenFormat = *req.ScreenFormat
	}
	if req.TotalSeats != nil {
		st.TotalSeats = *req.TotalSeats
		if st.AvailableSeats > st.TotalSeats {
			st.AvailableSeats = st.TotalSeats
		}
	}
	if req.Price != nil {
		st.Price = *req.Price
	}
	copied := *st
	return &copied, nil
}

func (f *fakeShowtimeStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.rows[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeShowtimeStore) AdjustAvailability(ctx context.Context, id int64, delta int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.adjustLocked(id, delta), nil
}

func (f *fakeShowtimeStore) adjustLocked(id int64, delta int) bool {
	st, ok := f.rows[id]
	if !ok {
		return false
	}
	next := st.AvailableSeats + delta
	if next < 0 {
		return false
	}
	if next > st.TotalSeats {
		next = st.TotalSeats
	}
	st.AvailableSeats = next
	return true
}

func (f *fakeShowtimeStore) Analytics(ctx context.Context, id int64) (*models.ShowtimeAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	st, ok := f.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &models.ShowtimeAnalytics{
		ShowtimeID:    id,
		TotalSeats:    st.TotalSeats,
		AvailableSeat: st.AvailableSeats,
	}, nil
}

type fakeBookingStore struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[int64]*models.Booking
	showtimes *fakeShowtimeStore
}

func newFakeBookingStore(showtimes *fakeShowtimeStore) *fakeBookingStore {
	return &fakeBookingStore{nextID: 1, rows: map[int64]*models.Booking{}, showtimes: showtimes}
}

func (f *fakeBookingStore) CreateBatch(ctx context.Context, bookings []*models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.showtimes.mu.Lock()
	defer f.showtimes.mu.Unlock()

	showtimeID := bookings[0].ShowtimeID
	st, ok := f.showtimes.rows[showtimeID]
	if !ok {
		return apperrors.ErrNotFound
	}

	for _, b := range bookings {
		for _, existing := range f.rows {
			if existing.ShowtimeID == showtimeID && existing.SeatID == b.SeatID && existing.Status.Live() {
				return apperrors.ErrSeatConflict
			}
		}
	}

	if st.AvailableSeats < len(bookings) {
		return apperrors.ErrSoldOut
	}
	st.AvailableSeats -= len(bookings)

	now := time.Now()
	for _, b := range bookings {
		b.ID = f.nextID
		f.nextID++
		b.CreatedAt = now
		b.UpdatedAt = now
		copied := *b
		f.rows[b.ID] = &copied
	}
	return nil
}

func (f *fakeBookingStore) AttachSession(ctx context.Context, bookingIDs []int64, sessionRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range bookingIDs {
		b, ok := f.rows[id]
		if !ok {
			return apperrors.ErrNotFound
		}
		ref := sessionRef
		b.SessionRef = &ref
	}
	return nil
}

func (f *fakeBookingStore) GetByIDs(ctx context.Context, ids []int64) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Booking
	for _, id := range ids {
		if b, ok := f.rows[id]; ok {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) GetByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Booking
	for _, b := range f.rows {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) GetBySession(ctx context.Context, sessionRef string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Booking
	for _, b := range f.rows {
		if b.SessionRef != nil && *b.SessionRef == sessionRef {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) GetLiveForShowtime(ctx context.Context, movieID, showDate, showTime string) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Booking
	for _, b := range f.rows {
		if b.MovieID == movieID && b.ShowDate == showDate && b.ShowTime == showTime && b.Status.Live() {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) TransitionBySession(ctx context.Context, sessionRef string, to models.BookingStatus, txnRef *string) ([]models.Booking, error) {
	if !models.StatusPendingPayment.CanTransition(to) {
		return nil, fmt.Errorf("illegal transition to %s", to)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.showtimes.mu.Lock()
	defer f.showtimes.mu.Unlock()

	var updated []models.Booking
	for _, b := range f.rows {
		if b.SessionRef == nil || *b.SessionRef != sessionRef || b.Status != models.StatusPendingPayment {
			continue
		}
		b.Status = to
		b.TxnRef = txnRef
		b.UpdatedAt = time.Now()
		if to.ReleasesSeat() {
			f.showtimes.adjustLocked(b.ShowtimeID, 1)
		}
		updated = append(updated, *b)
	}
	return updated, nil
}

func (f *fakeBookingStore) CancelOwned(ctx context.Context, userID string, bookingIDs []int64) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.showtimes.mu.Lock()
	defer f.showtimes.mu.Unlock()

	var cancelled []models.Booking
	for _, id := range bookingIDs {
		b, ok := f.rows[id]
		if !ok || b.UserID != userID || !b.Status.CanTransition(models.StatusCancelled) {
			continue
		}
		b.Status = models.StatusCancelled
		b.UpdatedAt = time.Now()
		f.showtimes.adjustLocked(b.ShowtimeID, 1)
		cancelled = append(cancelled, *b)
	}
	return cancelled, nil
}

func (f *fakeBookingStore) ExpireDue(ctx context.Context, createdBefore time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.showtimes.mu.Lock()
	defer f.showtimes.mu.Unlock()

	var expired []models.Booking
	for _, b := range f.rows {
		if b.Status != models.StatusPendingPayment {
			continue
		}
		if !b.CreatedAt.Before(createdBefore) && !f.showStartedLocked(b.ShowtimeID) {
			continue
		}
		b.Status = models.StatusExpired
		b.UpdatedAt = time.Now()
		f.showtimes.adjustLocked(b.ShowtimeID, 1)
		expired = append(expired, *b)
	}
	return expired, nil
}

// showStartedLocked reports whether the showtime's scheduled start has
// already passed. Holds on a started show expire regardless of age.
func (f *fakeBookingStore) showStartedLocked(showtimeID int64) bool {
	st, ok := f.showtimes.rows[showtimeID]
	if !ok {
		return false
	}
	start, err := time.ParseInLocation("2006-01-02 15:04", st.ShowDate+" "+st.ShowTime, time.Local)
	if err != nil {
		return false
	}
	return !start.After(time.Now())
}

type fakePaymentStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []models.Payment
}

func (f *fakePaymentStore) Record(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	p.ID = f.nextID
	p.RecordedAt = time.Now()
	f.rows = append(f.rows, *p)
	return nil
}

func (f *fakePaymentStore) ListBySession(ctx context.Context, sessionRef string) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Payment
	for _, p := range f.rows {
		if p.SessionRef == sessionRef {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeGateway struct {
	mu            sync.Mutex
	createErr     error
	sessionStatus map[string]string // sessionRef -> provider status for CheckSession
	cancelled     []string
	created       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessionStatus: map[string]string{}}
}

func (f *fakeGateway) CreateSession(ctx context.Context, amount int64, orderID, currency, description string, metadata map[string]string) (*external.CreateSessionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	ref := fmt.Sprintf("sess-%d", f.created)
	f.sessionStatus[ref] = "PENDING"
	return &external.CreateSessionResponse{
		Success:    true,
		SessionRef: ref,
		OrderID:    orderID,
		Status:     "PENDING",
		Amount:     amount,
		Currency:   currency,
		PaymentURL: "https://pay.example.com/" + ref,
	}, nil
}

func (f *fakeGateway) CheckSession(ctx context.Context, sessionRef string) (*external.CheckSessionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	status, ok := f.sessionStatus[sessionRef]
	if !ok {
		return nil, fmt.Errorf("unknown session %s", sessionRef)
	}
	return &external.CheckSessionResponse{
		Success:    true,
		SessionRef: sessionRef,
		Status:     status,
		TxnRef:     "txn-" + sessionRef,
	}, nil
}

func (f *fakeGateway) CancelSession(ctx context.Context, sessionRef, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelled = append(f.cancelled, sessionRef)
	return nil
}

func (f *fakeGateway) setStatus(sessionRef, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionStatus[sessionRef] = status
}

type fakeCatalog struct {
	movies map[string]external.CatalogMovie
	err    error
}

func (f *fakeCatalog) GetMovie(ctx context.Context, movieID string) (*external.CatalogMovie, error) {
	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.movies[movieID]
	if !ok {
		return nil, fmt.Errorf("movie not found")
	}
	return &m, nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]external.CatalogMovie, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []external.CatalogMovie
	for _, m := range f.movies {
		out = append(out, m)
	}
	return out, nil
}
