package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cinebook/internal/database"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/models"
)

type ShowtimeRepository struct {
	db *database.DB
}

func NewShowtimeRepository(db *database.DB) *ShowtimeRepository {
	return &ShowtimeRepository{db: db}
}

const showtimeColumns = `id, movie_id, to_char(show_date, 'YYYY-MM-DD'), to_char(show_time, 'HH24:MI'),
       screen_format, total_seats, available_seats, price, created_at, updated_at`

func scanShowtime(row interface{ Scan(...interface{}) error }, st *models.Showtime) error {
	return row.Scan(
		&st.ID,
		&st.MovieID,
		&st.ShowDate,
		&st.ShowTime,
		&st.ScreenFormat,
		&st.TotalSeats,
		&st.AvailableSeats,
		&st.Price,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
}

// CreateIfAbsent inserts the showtime unless one already exists for the
// same (movie, date, time, format). Losing the insert race is not an
// error; the caller falls through to reading the existing row.
func (r *ShowtimeRepository) CreateIfAbsent(ctx context.Context, st *models.Showtime) (bool, error) {
	query := `
		INSERT INTO showtimes (movie_id, show_date, show_time, screen_format, total_seats, available_seats, price)
		VALUES ($1, $2::date, $3::time, $4, $5, $6, $7)
		ON CONFLICT (movie_id, show_date, show_time, screen_format) DO NOTHING
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		st.MovieID,
		st.ShowDate,
		st.ShowTime,
		st.ScreenFormat,
		st.TotalSeats,
		st.AvailableSeats,
		st.Price,
	).Scan(&st.ID, &st.CreatedAt, &st.UpdatedAt)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByMovie returns showtimes for a movie, optionally bounded by an
// inclusive date range. Empty bounds are ignored.
func (r *ShowtimeRepository) ListByMovie(ctx context.Context, movieID, dateFrom, dateTo string) ([]models.Showtime, error) {
	query := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE movie_id = $1`
	args := []interface{}{movieID}

	if dateFrom != "" {
		args = append(args, dateFrom)
		query += fmt.Sprintf(" AND show_date >= $%d::date", len(args))
	}
	if dateTo != "" {
		args = append(args, dateTo)
		query += fmt.Sprintf(" AND show_date <= $%d::date", len(args))
	}

	query += " ORDER BY show_date, show_time, screen_format"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var showtimes []models.Showtime
	for rows.Next() {
		var st models.Showtime
		if err := scanShowtime(rows, &st); err != nil {
			return nil, err
		}
		showtimes = append(showtimes, st)
	}

	return showtimes, rows.Err()
}

func (r *ShowtimeRepository) GetByID(ctx context.Context, id int64) (*models.Showtime, error) {
	st := &models.Showtime{}
	query := `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = $1`

	err := scanShowtime(r.db.QueryRowContext(ctx, query, id), st)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return st, err
}

// Update applies a partial administrative update. Nil fields keep their
// current values; total_seats changes re-clamp the availability counter.
func (r *ShowtimeRepository) Update(ctx context.Context, id int64, req *models.UpdateShowtimeRequest) (*models.Showtime, error) {
	st := &models.Showtime{}
	query := `
		UPDATE showtimes
		SET show_date = COALESCE($2::date, show_date),
		    show_time = COALESCE($3::time, show_time),
		    screen_format = COALESCE($4, screen_format),
		    total_seats = COALESCE($5, total_seats),
		    available_seats = LEAST(available_seats, COALESCE($5, total_seats)),
		    price = COALESCE($6, price),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + showtimeColumns

	err := scanShowtime(r.db.QueryRowContext(ctx, query, id,
		req.ShowDate, req.ShowTime, req.ScreenFormat, req.TotalSeats, req.Price), st)
	if err == sql.ErrNoRows {
		return nil, apperrors.ErrNotFound
	}
	return st, err
}

func (r *ShowtimeRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM showtimes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AdjustAvailability applies delta to available_seats in one conditional
// update. A decrement below zero is refused (applied=false); an increment
// is clamped so the counter never exceeds total_seats.
func (r *ShowtimeRepository) AdjustAvailability(ctx context.Context, id int64, delta int) (bool, error) {
	query := `
		UPDATE showtimes
		SET available_seats = LEAST(available_seats + $2, total_seats), updated_at = NOW()
		WHERE id = $1 AND available_seats + $2 >= 0`

	result, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Analytics aggregates the hold/sold split for one showtime from the
// booking ledger.
func (r *ShowtimeRepository) Analytics(ctx context.Context, id int64) (*models.ShowtimeAnalytics, error) {
	st, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, apperrors.ErrNotFound
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 0),
			COUNT(*) FILTER (WHERE status = 1),
			COALESCE(SUM(price) FILTER (WHERE status = 1), 0)
		FROM bookings
		WHERE showtime_id = $1`

	analytics := &models.ShowtimeAnalytics{
		ShowtimeID:    st.ID,
		TotalSeats:    st.TotalSeats,
		AvailableSeat: st.AvailableSeats,
	}
	err = r.db.QueryRowContext(ctx, query, id).Scan(
		&analytics.HeldSeats,
		&analytics.SoldSeats,
		&analytics.Revenue,
	)
	if err != nil {
		return nil, err
	}

	return analytics, nil
}
