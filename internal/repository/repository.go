package repository

import (
	"cinebook/internal/database"
)

type Repositories struct {
	Showtimes *ShowtimeRepository
	Bookings  *BookingRepository
	Payments  *PaymentRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Showtimes: NewShowtimeRepository(db),
		Bookings:  NewBookingRepository(db),
		Payments:  NewPaymentRepository(db),
	}
}
