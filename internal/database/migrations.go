package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createShowtimesTable,
		createBookingsTable,
		createPaymentsTable,
		createLiveSeatIndex,
		createBookingSessionIndex,
		createBookingUserIndex,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createShowtimesTable = `
CREATE TABLE IF NOT EXISTS showtimes (
    id SERIAL PRIMARY KEY,
    movie_id VARCHAR(64) NOT NULL,
    show_date DATE NOT NULL,
    show_time TIME NOT NULL,
    screen_format VARCHAR(10) NOT NULL,
    total_seats INTEGER NOT NULL,
    available_seats INTEGER NOT NULL,
    price BIGINT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    UNIQUE(movie_id, show_date, show_time, screen_format),
    CHECK (screen_format IN ('2D', '3D', 'IMAX', '4DX')),
    CHECK (total_seats > 0),
    CHECK (available_seats >= 0 AND available_seats <= total_seats),
    CHECK (price > 0)
);`

const createBookingsTable = `
CREATE TABLE IF NOT EXISTS bookings (
    id SERIAL PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL DEFAULT 'guest',
    movie_id VARCHAR(64) NOT NULL,
    show_date DATE NOT NULL,
    show_time TIME NOT NULL,
    showtime_id INTEGER NOT NULL REFERENCES showtimes(id),
    seat_id VARCHAR(8) NOT NULL,
    price BIGINT NOT NULL,
    status SMALLINT NOT NULL DEFAULT 0,
    session_ref VARCHAR(255),
    txn_ref VARCHAR(255),
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP NOT NULL DEFAULT NOW(),

    CHECK (status BETWEEN 0 AND 5)
);`

// Second line of defense for the core invariant: at most one live
// (pending or confirmed) claim per (showtime, seat).
const createLiveSeatIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS bookings_live_seat_idx
ON bookings (showtime_id, seat_id)
WHERE status IN (0, 1);`

const createBookingSessionIndex = `
CREATE INDEX IF NOT EXISTS bookings_session_ref_idx
ON bookings (session_ref)
WHERE session_ref IS NOT NULL;`

const createBookingUserIndex = `
CREATE INDEX IF NOT EXISTS bookings_user_id_idx
ON bookings (user_id);`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
    id SERIAL PRIMARY KEY,
    session_ref VARCHAR(255) NOT NULL,
    txn_ref VARCHAR(255),
    amount BIGINT NOT NULL,
    currency VARCHAR(8) NOT NULL,
    status VARCHAR(32) NOT NULL,
    method VARCHAR(32) NOT NULL DEFAULT '',
    recorded_at TIMESTAMP NOT NULL DEFAULT NOW()
);`
