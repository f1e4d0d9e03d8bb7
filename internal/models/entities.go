package models

import (
	"time"
)

// Screen formats a showtime can run in. Capacity and the flat per-seat
// price tier are derived from the format.
const (
	Format2D   = "2D"
	Format3D   = "3D"
	FormatIMAX = "IMAX"
	Format4DX  = "4DX"
)

// ScreenFormats lists the fixed format enumeration.
var ScreenFormats = []string{Format2D, Format3D, FormatIMAX, Format4DX}

// ValidScreenFormat reports whether f is one of the known formats.
func ValidScreenFormat(f string) bool {
	for _, known := range ScreenFormats {
		if f == known {
			return true
		}
	}
	return false
}

// Showtime represents one screening of a movie. AvailableSeats is the
// inverse counter of live seat claims and is only ever mutated through
// the repository's conditional adjustment.
type Showtime struct {
	ID             int64     `json:"id" db:"id"`
	MovieID        string    `json:"movie_id" db:"movie_id"`
	ShowDate       string    `json:"show_date" db:"show_date"` // YYYY-MM-DD
	ShowTime       string    `json:"show_time" db:"show_time"` // HH:MM
	ScreenFormat   string    `json:"screen_format" db:"screen_format"`
	TotalSeats     int       `json:"total_seats" db:"total_seats"`
	AvailableSeats int       `json:"available_seats" db:"available_seats"`
	Price          int64     `json:"price" db:"price"` // per seat, minor units
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Booking is one unit of seat inventory claimed by a user for a showtime.
// Seats claimed together produce one row each; rows are grouped back into
// a logical purchase by SessionRef once checkout starts.
type Booking struct {
	ID         int64         `json:"id" db:"id"`
	UserID     string        `json:"user_id" db:"user_id"`
	MovieID    string        `json:"movie_id" db:"movie_id"`
	ShowDate   string        `json:"show_date" db:"show_date"`
	ShowTime   string        `json:"show_time" db:"show_time"`
	ShowtimeID int64         `json:"showtime_id" db:"showtime_id"`
	SeatID     string        `json:"seat_id" db:"seat_id"`
	Price      int64         `json:"price" db:"price"`
	Status     BookingStatus `json:"status" db:"status"`
	SessionRef *string       `json:"session_ref" db:"session_ref"`
	TxnRef     *string       `json:"txn_ref" db:"txn_ref"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// Payment is an append-only audit record of a provider-reported outcome.
// Written once per received event, never mutated, never read for control
// flow.
type Payment struct {
	ID         int64     `json:"id" db:"id"`
	SessionRef string    `json:"session_ref" db:"session_ref"`
	TxnRef     *string   `json:"txn_ref" db:"txn_ref"`
	Amount     int64     `json:"amount" db:"amount"`
	Currency   string    `json:"currency" db:"currency"`
	Status     string    `json:"status" db:"status"`
	Method     string    `json:"method" db:"method"`
	RecordedAt time.Time `json:"recorded_at" db:"recorded_at"`
}
