package service

import (
	"context"
	"fmt"
	"time"

	apperrors "cinebook/internal/errors"
	"cinebook/internal/models"
)

// scheduleSlot is one canonical screening of the fixed default schedule
// used when showtimes are materialized lazily. Capacity and price follow
// the screen format, not the movie.
type scheduleSlot struct {
	ShowTime string
	Format   string
	Seats    int
	Price    int64 // per seat, minor units
}

var defaultSchedule = []scheduleSlot{
	{ShowTime: "11:00", Format: models.Format2D, Seats: 120, Price: 1200},
	{ShowTime: "14:30", Format: models.Format3D, Seats: 100, Price: 1500},
	{ShowTime: "18:00", Format: models.FormatIMAX, Seats: 80, Price: 2000},
	{ShowTime: "21:30", Format: models.Format4DX, Seats: 60, Price: 2500},
}

const (
	dateLayout       = "2006-01-02"
	timeLayout       = "15:04"
	defaultRangeDays = 7
)

type ShowtimeService struct {
	showtimes ShowtimeStore
}

func NewShowtimeService(showtimes ShowtimeStore) *ShowtimeService {
	return &ShowtimeService{showtimes: showtimes}
}

// EnsureForMovie idempotently materializes the default schedule for
// every date in the inclusive range. Races with concurrent callers are
// absorbed by the uniqueness constraint; a lost insert is a no-op.
func (s *ShowtimeService) EnsureForMovie(ctx context.Context, movieID, dateFrom, dateTo string) error {
	from, err := time.Parse(dateLayout, dateFrom)
	if err != nil {
		return fmt.Errorf("%w: invalid date %q", apperrors.ErrValidation, dateFrom)
	}
	to, err := time.Parse(dateLayout, dateTo)
	if err != nil {
		return fmt.Errorf("%w: invalid date %q", apperrors.ErrValidation, dateTo)
	}
	if to.Before(from) {
		return fmt.Errorf("%w: date range is inverted", apperrors.ErrValidation)
	}

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, slot := range defaultSchedule {
			st := &models.Showtime{
				MovieID:        movieID,
				ShowDate:       day.Format(dateLayout),
				ShowTime:       slot.ShowTime,
				ScreenFormat:   slot.Format,
				TotalSeats:     slot.Seats,
				AvailableSeats: slot.Seats,
				Price:          slot.Price,
			}
			if _, err := s.showtimes.CreateIfAbsent(ctx, st); err != nil {
				return fmt.Errorf("failed to ensure showtime: %w", err)
			}
		}
	}

	return nil
}

// List returns showtimes for a movie, lazily creating the default
// schedule when the requested range has none yet. Missing bounds default
// to the next week.
func (s *ShowtimeService) List(ctx context.Context, movieID, dateFrom, dateTo string) ([]models.ListShowtimesResponseItem, error) {
	if movieID == "" {
		return nil, fmt.Errorf("%w: movie_id is required", apperrors.ErrValidation)
	}
	if dateFrom == "" {
		dateFrom = time.Now().Format(dateLayout)
	}
	if dateTo == "" {
		from, err := time.Parse(dateLayout, dateFrom)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", apperrors.ErrValidation, dateFrom)
		}
		dateTo = from.AddDate(0, 0, defaultRangeDays-1).Format(dateLayout)
	}

	showtimes, err := s.showtimes.ListByMovie(ctx, movieID, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("failed to list showtimes: %w", err)
	}

	if len(showtimes) == 0 {
		if err := s.EnsureForMovie(ctx, movieID, dateFrom, dateTo); err != nil {
			return nil, err
		}
		showtimes, err = s.showtimes.ListByMovie(ctx, movieID, dateFrom, dateTo)
		if err != nil {
			return nil, fmt.Errorf("failed to list showtimes: %w", err)
		}
	}

	result := make([]models.ListShowtimesResponseItem, len(showtimes))
	for i, st := range showtimes {
		result[i] = models.ListShowtimesResponseItem{
			ID:             st.ID,
			MovieID:        st.MovieID,
			ShowDate:       st.ShowDate,
			ShowTime:       st.ShowTime,
			ScreenFormat:   st.ScreenFormat,
			TotalSeats:     st.TotalSeats,
			AvailableSeats: st.AvailableSeats,
			Price:          st.Price,
		}
	}

	return result, nil
}

func (s *ShowtimeService) Get(ctx context.Context, id int64) (*models.Showtime, error) {
	st, err := s.showtimes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get showtime: %w", err)
	}
	if st == nil {
		return nil, apperrors.ErrNotFound
	}
	return st, nil
}

// Create is the administrative path. It reuses the idempotent insert, so
// re-creating an existing slot returns the existing row instead of
// failing on the constraint.
func (s *ShowtimeService) Create(ctx context.Context, req *models.CreateShowtimeRequest) (*models.Showtime, error) {
	available := req.TotalSeats
	if req.AvailableSeats != nil {
		available = *req.AvailableSeats
	}

	st := &models.Showtime{
		MovieID:        req.MovieID,
		ShowDate:       req.ShowDate,
		ShowTime:       req.ShowTime,
		ScreenFormat:   req.ScreenFormat,
		TotalSeats:     req.TotalSeats,
		AvailableSeats: available,
		Price:          req.Price,
	}
	if err := validateShowtime(st); err != nil {
		return nil, err
	}

	created, err := s.showtimes.CreateIfAbsent(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("failed to create showtime: %w", err)
	}
	if !created {
		existing, err := s.showtimes.ListByMovie(ctx, st.MovieID, st.ShowDate, st.ShowDate)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read showtime: %w", err)
		}
		for i := range existing {
			if existing[i].ShowTime == st.ShowTime && existing[i].ScreenFormat == st.ScreenFormat {
				return &existing[i], nil
			}
		}
		return nil, fmt.Errorf("showtime exists but could not be re-read")
	}

	return st, nil
}

func (s *ShowtimeService) Update(ctx context.Context, id int64, req *models.UpdateShowtimeRequest) (*models.Showtime, error) {
	if req.ShowDate != nil {
		if _, err := time.Parse(dateLayout, *req.ShowDate); err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", apperrors.ErrValidation, *req.ShowDate)
		}
	}
	if req.ShowTime != nil {
		if _, err := time.Parse(timeLayout, *req.ShowTime); err != nil {
			return nil, fmt.Errorf("%w: invalid time %q", apperrors.ErrValidation, *req.ShowTime)
		}
	}
	if req.ScreenFormat != nil && !models.ValidScreenFormat(*req.ScreenFormat) {
		return nil, fmt.Errorf("%w: unknown screen format %q", apperrors.ErrValidation, *req.ScreenFormat)
	}
	if req.TotalSeats != nil && *req.TotalSeats <= 0 {
		return nil, fmt.Errorf("%w: total_seats must be positive", apperrors.ErrValidation)
	}
	if req.Price != nil && *req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", apperrors.ErrValidation)
	}

	st, err := s.showtimes.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// AdjustAvailability applies a manual inventory correction. A decrement
// that would go negative is reported as the ordinary sold-out outcome,
// not a server failure.
func (s *ShowtimeService) AdjustAvailability(ctx context.Context, id int64, delta int) error {
	applied, err := s.showtimes.AdjustAvailability(ctx, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust availability: %w", err)
	}
	if !applied {
		if delta < 0 {
			return apperrors.ErrSoldOut
		}
		return apperrors.ErrNotFound
	}
	return nil
}

func (s *ShowtimeService) Delete(ctx context.Context, id int64) error {
	return s.showtimes.Delete(ctx, id)
}

func (s *ShowtimeService) Analytics(ctx context.Context, id int64) (*models.ShowtimeAnalytics, error) {
	return s.showtimes.Analytics(ctx, id)
}

func validateShowtime(st *models.Showtime) error {
	if st.MovieID == "" {
		return fmt.Errorf("%w: movie_id is required", apperrors.ErrValidation)
	}
	if _, err := time.Parse(dateLayout, st.ShowDate); err != nil {
		return fmt.Errorf("%w: invalid date %q", apperrors.ErrValidation, st.ShowDate)
	}
	if _, err := time.Parse(timeLayout, st.ShowTime); err != nil {
		return fmt.Errorf("%w: invalid time %q", apperrors.ErrValidation, st.ShowTime)
	}
	if !models.ValidScreenFormat(st.ScreenFormat) {
		return fmt.Errorf("%w: unknown screen format %q", apperrors.ErrValidation, st.ScreenFormat)
	}
	if st.TotalSeats <= 0 {
		return fmt.Errorf("%w: total_seats must be positive", apperrors.ErrValidation)
	}
	if st.AvailableSeats < 0 || st.AvailableSeats > st.TotalSeats {
		return fmt.Errorf("%w: available_seats out of range", apperrors.ErrValidation)
	}
	if st.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", apperrors.ErrValidation)
	}
	return nil
}
