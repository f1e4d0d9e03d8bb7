package models

import "time"

// NATS Event Types
const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingFailed    = "booking.failed"
	EventBookingExpired   = "booking.expired"
	EventBookingCancelled = "booking.cancelled"
	EventCheckoutStarted  = "checkout.started"
	EventPaymentRecorded  = "payment.recorded"
)

// BookingCreatedEvent represents a new seat hold batch.
type BookingCreatedEvent struct {
	BookingIDs []int64   `json:"booking_ids"`
	ShowtimeID int64     `json:"showtime_id"`
	UserID     string    `json:"user_id"`
	SeatIDs    []string  `json:"seat_ids"`
	Timestamp  time.Time `json:"timestamp"`
}

// BookingStatusEvent represents a lifecycle transition applied to a
// session's booking rows.
type BookingStatusEvent struct {
	SessionRef string        `json:"session_ref"`
	Status     BookingStatus `json:"status"`
	Count      int           `json:"count"`
	Timestamp  time.Time     `json:"timestamp"`
}

// BookingExpiredEvent represents a sweeper expiry.
type BookingExpiredEvent struct {
	BookingID  int64     `json:"booking_id"`
	ShowtimeID int64     `json:"showtime_id"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

// BookingCancelledEvent represents a user-initiated cancellation.
type BookingCancelledEvent struct {
	BookingIDs []int64   `json:"booking_ids"`
	UserID     string    `json:"user_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// CheckoutStartedEvent represents a created payment session.
type CheckoutStartedEvent struct {
	SessionRef string    `json:"session_ref"`
	BookingIDs []int64   `json:"booking_ids"`
	Amount     int64     `json:"amount"`
	Timestamp  time.Time `json:"timestamp"`
}

// PaymentRecordedEvent represents an appended payment audit entry.
type PaymentRecordedEvent struct {
	SessionRef string    `json:"session_ref"`
	Status     string    `json:"status"`
	Amount     int64     `json:"amount"`
	Timestamp  time.Time `json:"timestamp"`
}
