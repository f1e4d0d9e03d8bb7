package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"cinebook/internal/database"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/models"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, user_id, movie_id, to_char(show_date, 'YYYY-MM-DD'), to_char(show_time, 'HH24:MI'),
       showtime_id, seat_id, price, status, session_ref, txn_ref, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }, b *models.Booking) error {
	return row.Scan(
		&b.ID,
		&b.UserID,
		&b.MovieID,
		&b.ShowDate,
		&b.ShowTime,
		&b.ShowtimeID,
		&b.SeatID,
		&b.Price,
		&b.Status,
		&b.SessionRef,
		&b.TxnRef,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}

// CreateBatch turns a seat-selection into booking rows with an
// all-or-nothing guarantee. The seat-conflict check, the inventory
// decrement and the inserts run in one transaction serialized on the
// showtime row, so two overlapping requests cannot both claim a seat.
func (r *BookingRepository) CreateBatch(ctx context.Context, bookings []*models.Booking) error {
	if len(bookings) == 0 {
		return apperrors.ErrValidation
	}
	showtimeID := bookings[0].ShowtimeID
	seatIDs := make([]string, len(bookings))
	for i, b := range bookings {
		seatIDs[i] = b.SeatID
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Serialize concurrent holds for this showtime.
	var available int
	err = tx.QueryRowContext(ctx,
		`SELECT available_seats FROM showtimes WHERE id = $1 FOR UPDATE`, showtimeID).Scan(&available)
	if err == sql.ErrNoRows {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}

	// Reject the whole batch if any requested seat has a live claim.
	var taken int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE showtime_id = $1 AND seat_id = ANY($2) AND status IN (0, 1)`,
		showtimeID, pq.Array(seatIDs)).Scan(&taken)
	if err != nil {
		return err
	}
	if taken > 0 {
		return apperrors.ErrSeatConflict
	}

	// Guard total capacity as a second line of defense even when the
	// per-seat check passed.
	result, err := tx.ExecContext(ctx,
		`UPDATE showtimes SET available_seats = available_seats - $2, updated_at = NOW()
		 WHERE id = $1 AND available_seats >= $2`,
		showtimeID, len(bookings))
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrSoldOut
	}

	insertQuery := `
		INSERT INTO bookings (user_id, movie_id, show_date, show_time, showtime_id, seat_id, price, status)
		VALUES ($1, $2, $3::date, $4::time, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	for _, b := range bookings {
		err := tx.QueryRowContext(ctx, insertQuery,
			b.UserID, b.MovieID, b.ShowDate, b.ShowTime, b.ShowtimeID, b.SeatID, b.Price, b.Status,
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return apperrors.ErrSeatConflict
			}
			return err
		}
	}

	return tx.Commit()
}

// AttachSession stamps the checkout session onto a hold batch. Purely
// administrative; no state transition.
func (r *BookingRepository) AttachSession(ctx context.Context, bookingIDs []int64, sessionRef string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET session_ref = $1, updated_at = NOW() WHERE id = ANY($2)`,
		sessionRef, pq.Array(bookingIDs))
	return err
}

func (r *BookingRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Booking, error) {
	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
}

func (r *BookingRepository) GetByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
}

func (r *BookingRepository) GetBySession(ctx context.Context, sessionRef string) ([]models.Booking, error) {
	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE session_ref = $1 ORDER BY id`, sessionRef)
}

// GetLiveForShowtime returns the live seat claims used to render a seat
// map for one screening.
func (r *BookingRepository) GetLiveForShowtime(ctx context.Context, movieID, showDate, showTime string) ([]models.Booking, error) {
	return r.query(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE movie_id = $1 AND show_date = $2::date AND show_time = $3::time AND status IN (0, 1)
		 ORDER BY seat_id`,
		movieID, showDate, showTime)
}

// TransitionBySession moves every still-pending row of a session to the
// target status, stamping txnRef when given. Rows that already left
// PENDING_PAYMENT are untouched, which is what makes webhook replay and
// sweeper races safe. When the target releases seats, the matching
// availability increments happen in the same transaction.
func (r *BookingRepository) TransitionBySession(ctx context.Context, sessionRef string, to models.BookingStatus, txnRef *string) ([]models.Booking, error) {
	if !models.StatusPendingPayment.CanTransition(to) {
		return nil, apperrors.ErrValidation
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`UPDATE bookings
		 SET status = $2, txn_ref = COALESCE($3, txn_ref), updated_at = NOW()
		 WHERE session_ref = $1 AND status = 0
		 RETURNING id, showtime_id, seat_id, price`,
		sessionRef, to, txnRef)
	if err != nil {
		return nil, err
	}

	var affected []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.ShowtimeID, &b.SeatID, &b.Price); err != nil {
			rows.Close()
			return nil, err
		}
		b.Status = to
		affected = append(affected, b)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if to.ReleasesSeat() {
		if err := restoreSeats(ctx, tx, affected); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return affected, nil
}

// CancelOwned cancels every requested booking that belongs to the user
// and is still live. Non-owned, terminal or unknown IDs are skipped, not
// errors. Each cancelled row restores one seat, in the same transaction.
func (r *BookingRepository) CancelOwned(ctx context.Context, userID string, bookingIDs []int64) ([]models.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`UPDATE bookings
		 SET status = $3, updated_at = NOW()
		 WHERE id = ANY($1) AND user_id = $2 AND status IN (0, 1)
		 RETURNING id, showtime_id, seat_id, price`,
		pq.Array(bookingIDs), userID, models.StatusCancelled)
	if err != nil {
		return nil, err
	}

	var cancelled []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.ShowtimeID, &b.SeatID, &b.Price); err != nil {
			rows.Close()
			return nil, err
		}
		b.Status = models.StatusCancelled
		cancelled = append(cancelled, b)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if err := restoreSeats(ctx, tx, cancelled); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return cancelled, nil
}

// ExpireDue expires pending bookings whose show has already started or
// whose hold outlived createdBefore, restoring their seats. Safe to run
// at any frequency and concurrently with the reconciler: both transition
// only rows that are still pending.
func (r *BookingRepository) ExpireDue(ctx context.Context, createdBefore time.Time) ([]models.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`UPDATE bookings b
		 SET status = $2, updated_at = NOW()
		 FROM showtimes s
		 WHERE b.showtime_id = s.id
		   AND b.status = 0
		   AND ((s.show_date + s.show_time) <= NOW() OR b.created_at < $1)
		 RETURNING b.id, b.showtime_id, b.seat_id, b.price`,
		createdBefore, models.StatusExpired)
	if err != nil {
		return nil, err
	}

	var expired []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.ShowtimeID, &b.SeatID, &b.Price); err != nil {
			rows.Close()
			return nil, err
		}
		b.Status = models.StatusExpired
		expired = append(expired, b)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if err := restoreSeats(ctx, tx, expired); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return expired, nil
}

// restoreSeats increments availability once per affected booking,
// grouped by showtime, clamped at total_seats.
func restoreSeats(ctx context.Context, tx *sql.Tx, bookings []models.Booking) error {
	counts := make(map[int64]int)
	for _, b := range bookings {
		counts[b.ShowtimeID]++
	}

	for showtimeID, n := range counts {
		_, err := tx.ExecContext(ctx,
			`UPDATE showtimes
			 SET available_seats = LEAST(available_seats + $2, total_seats), updated_at = NOW()
			 WHERE id = $1`,
			showtimeID, n)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *BookingRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}
