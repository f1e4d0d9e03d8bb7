package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/metrics"
	"cinebook/internal/models"
)

// Seat labels are row letter(s) plus seat number, e.g. "A1", "AB12".
var seatLabelRe = regexp.MustCompile(`^[A-Z]{1,2}[0-9]{1,3}$`)

const maxSeatsPerBooking = 10

type BookingService struct {
	bookings   BookingStore
	showtimes  ShowtimeStore
	gateway    PaymentGateway
	natsClient *messaging.NATSClient
	sweeper    *SweeperService
	reconciler *ReconcilerService
	policy     Policy
}

func NewBookingService(bookings BookingStore, showtimes ShowtimeStore, gateway PaymentGateway, natsClient *messaging.NATSClient, sweeper *SweeperService, reconciler *ReconcilerService, policy Policy) *BookingService {
	return &BookingService{
		bookings:   bookings,
		showtimes:  showtimes,
		gateway:    gateway,
		natsClient: natsClient,
		sweeper:    sweeper,
		reconciler: reconciler,
		policy:     policy,
	}
}

// Create claims the requested seats as one pending hold per seat. Either
// every seat is claimed or none are: conflicts and a sold-out counter
// roll the whole batch back inside the store.
func (s *BookingService) Create(ctx context.Context, userID string, req *models.CreateBookingRequest) (*models.CreateBookingResponse, error) {
	if err := validateBookingRequest(req); err != nil {
		return nil, err
	}

	st, err := s.showtimes.GetByID(ctx, req.ShowtimeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load showtime: %w", err)
	}
	if st == nil {
		return nil, fmt.Errorf("%w: showtime %d", apperrors.ErrNotFound, req.ShowtimeID)
	}

	rows := make([]*models.Booking, len(req.SeatIDs))
	for i, seatID := range req.SeatIDs {
		rows[i] = &models.Booking{
			UserID:     userID,
			MovieID:    req.MovieID,
			ShowDate:   req.ShowDate,
			ShowTime:   req.ShowTime,
			ShowtimeID: req.ShowtimeID,
			SeatID:     seatID,
			Price:      req.Price,
			Status:     models.StatusPendingPayment,
		}
	}

	if err := s.bookings.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}

	metrics.BookingsCreated.Add(float64(len(rows)))

	resp := &models.CreateBookingResponse{Bookings: make([]models.Booking, len(rows))}
	ids := make([]int64, len(rows))
	seats := make([]string, len(rows))
	for i, b := range rows {
		resp.Bookings[i] = *b
		ids[i] = b.ID
		seats[i] = b.SeatID
	}

	warnPublish(ctx, s.natsClient.Publish(models.EventBookingCreated, models.BookingCreatedEvent{
		BookingIDs: ids,
		ShowtimeID: req.ShowtimeID,
		UserID:     userID,
		SeatIDs:    seats,
		Timestamp:  time.Now(),
	}), models.EventBookingCreated)

	logger.WithContext(ctx).Info("Bookings created",
		"user_id", userID,
		"showtime_id", req.ShowtimeID,
		"seats", len(rows))

	return resp, nil
}

// Checkout opens a hosted payment session for a set of pending holds
// owned by the caller and stamps the session reference onto the rows.
func (s *BookingService) Checkout(ctx context.Context, userID string, req *models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if len(req.BookingIDs) == 0 {
		return nil, fmt.Errorf("%w: booking_ids is required", apperrors.ErrValidation)
	}

	rows, err := s.bookings.GetByIDs(ctx, req.BookingIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	if len(rows) != len(req.BookingIDs) {
		return nil, fmt.Errorf("%w: some bookings do not exist", apperrors.ErrNotFound)
	}

	var amount int64
	for _, b := range rows {
		if b.UserID != userID {
			return nil, fmt.Errorf("%w: booking %d belongs to another user", apperrors.ErrNotFound, b.ID)
		}
		if b.Status != models.StatusPendingPayment {
			return nil, fmt.Errorf("%w: booking %d is %s", apperrors.ErrValidation, b.ID, b.Status)
		}
		if b.SessionRef != nil {
			return nil, fmt.Errorf("%w: booking %d already has a payment session", apperrors.ErrValidation, b.ID)
		}
		amount += b.Price
	}

	orderID := uuid.New().String()
	description := fmt.Sprintf("Movie tickets: %d seat(s) for %s %s %s",
		len(rows), rows[0].MovieID, rows[0].ShowDate, rows[0].ShowTime)

	session, err := s.gateway.CreateSession(ctx, amount, orderID, s.policy.Currency, description, map[string]string{
		"user_id":  userID,
		"movie_id": rows[0].MovieID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: payment session creation failed: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	if err := s.bookings.AttachSession(ctx, req.BookingIDs, session.SessionRef); err != nil {
		// The hosted session exists but we could not stamp it; cancel it
		// so the user is never asked to pay for an orphan.
		if cancelErr := s.gateway.CancelSession(ctx, session.SessionRef, "attach failed"); cancelErr != nil {
			logger.WithContext(ctx).Error("Failed to cancel orphan payment session",
				"session_ref", session.SessionRef, "error", cancelErr)
		}
		return nil, fmt.Errorf("failed to attach payment session: %w", err)
	}

	warnPublish(ctx, s.natsClient.Publish(models.EventCheckoutStarted, models.CheckoutStartedEvent{
		SessionRef: session.SessionRef,
		BookingIDs: req.BookingIDs,
		Amount:     amount,
		Timestamp:  time.Now(),
	}), models.EventCheckoutStarted)

	logger.WithContext(ctx).Info("Checkout started",
		"user_id", userID,
		"session_ref", session.SessionRef,
		"amount", amount)

	return &models.CheckoutResponse{
		SessionRef: session.SessionRef,
		PaymentURL: session.PaymentURL,
		Amount:     amount,
		Currency:   s.policy.Currency,
	}, nil
}

// ListForUser returns the caller's bookings grouped into logical
// purchases, newest first.
func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]models.BookingGroup, error) {
	rows, err := s.bookings.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return models.GroupBookings(rows), nil
}

// SeatMap returns the live seat claims for a screening. Overdue holds
// are swept first so the map never shows a hold past its window.
func (s *BookingService) SeatMap(ctx context.Context, movieID, showDate, showTime string) ([]models.SeatMapEntry, error) {
	if movieID == "" || showDate == "" || showTime == "" {
		return nil, fmt.Errorf("%w: movie_id, show_date and show_time are required", apperrors.ErrValidation)
	}

	if _, err := s.sweeper.ExpireDue(ctx); err != nil {
		logger.WithContext(ctx).Error("Pre-seatmap sweep failed", "error", err)
	}

	rows, err := s.bookings.GetLiveForShowtime(ctx, movieID, showDate, showTime)
	if err != nil {
		return nil, fmt.Errorf("failed to load seat map: %w", err)
	}

	entries := make([]models.SeatMapEntry, len(rows))
	for i, b := range rows {
		entries[i] = models.SeatMapEntry{SeatID: b.SeatID, Status: b.Status}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SeatID < entries[j].SeatID })

	return entries, nil
}

// GetBySession resolves a payment session to its booking group. The
// provider is polled first so a user landing on the success page sees
// the confirmed state even if the webhook has not arrived yet.
func (s *BookingService) GetBySession(ctx context.Context, sessionRef string) (*models.BookingGroup, error) {
	if sessionRef == "" {
		return nil, fmt.Errorf("%w: session_ref is required", apperrors.ErrValidation)
	}

	if err := s.reconciler.SyncBySession(ctx, sessionRef); err != nil {
		logger.WithContext(ctx).Error("Payment session sync failed",
			"session_ref", sessionRef, "error", err)
	}

	rows, err := s.bookings.GetBySession(ctx, sessionRef)
	if err != nil {
		return nil, fmt.Errorf("failed to load session bookings: %w", err)
	}
	groups := models.GroupBookings(rows)
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: session %s", apperrors.ErrNotFound, sessionRef)
	}

	return &groups[0], nil
}

// Cancel cancels the caller's bookings and releases their seats. Rows in
// terminal states are skipped; if nothing was cancellable the caller
// gets ErrNothingToCancel. Open payment sessions behind the cancelled
// rows are closed best-effort.
func (s *BookingService) Cancel(ctx context.Context, userID string, req *models.CancelBookingsRequest) (*models.CancelBookingsResponse, error) {
	if len(req.BookingIDs) == 0 {
		return nil, fmt.Errorf("%w: booking_ids is required", apperrors.ErrValidation)
	}

	cancelled, err := s.bookings.CancelOwned(ctx, userID, req.BookingIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel bookings: %w", err)
	}
	if len(cancelled) == 0 {
		return nil, apperrors.ErrNothingToCancel
	}

	metrics.BookingsCancelled.Add(float64(len(cancelled)))

	sessions := map[string]struct{}{}
	ids := make([]int64, len(cancelled))
	for i, b := range cancelled {
		ids[i] = b.ID
		if b.SessionRef != nil {
			sessions[*b.SessionRef] = struct{}{}
		}
	}
	for ref := range sessions {
		if err := s.gateway.CancelSession(ctx, ref, "bookings cancelled by user"); err != nil {
			logger.WithContext(ctx).Error("Failed to cancel payment session",
				"session_ref", ref, "error", err)
		}
	}

	warnPublish(ctx, s.natsClient.Publish(models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingIDs: ids,
		UserID:     userID,
		Timestamp:  time.Now(),
	}), models.EventBookingCancelled)

	logger.WithContext(ctx).Info("Bookings cancelled",
		"user_id", userID, "count", len(cancelled))

	return &models.CancelBookingsResponse{Cancelled: int64(len(cancelled))}, nil
}

func validateBookingRequest(req *models.CreateBookingRequest) error {
	if req.ShowtimeID <= 0 {
		return fmt.Errorf("%w: showtime_id is required", apperrors.ErrValidation)
	}
	if req.MovieID == "" {
		return fmt.Errorf("%w: movie_id is required", apperrors.ErrValidation)
	}
	if _, err := time.Parse(dateLayout, req.ShowDate); err != nil {
		return fmt.Errorf("%w: invalid date %q", apperrors.ErrValidation, req.ShowDate)
	}
	if _, err := time.Parse(timeLayout, req.ShowTime); err != nil {
		return fmt.Errorf("%w: invalid time %q", apperrors.ErrValidation, req.ShowTime)
	}
	if len(req.SeatIDs) == 0 {
		return fmt.Errorf("%w: seat_ids is required", apperrors.ErrValidation)
	}
	if len(req.SeatIDs) > maxSeatsPerBooking {
		return fmt.Errorf("%w: at most %d seats per booking", apperrors.ErrValidation, maxSeatsPerBooking)
	}
	if req.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", apperrors.ErrValidation)
	}

	seen := make(map[string]struct{}, len(req.SeatIDs))
	for _, seatID := range req.SeatIDs {
		if !seatLabelRe.MatchString(seatID) {
			return fmt.Errorf("%w: invalid seat id %q", apperrors.ErrValidation, seatID)
		}
		if _, dup := seen[seatID]; dup {
			return fmt.Errorf("%w: duplicate seat id %q", apperrors.ErrValidation, seatID)
		}
		seen[seatID] = struct{}{}
	}

	return nil
}
