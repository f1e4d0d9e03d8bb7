package models

import (
	"database/sql/driver"
	"fmt"
)

// BookingStatus is the lifecycle state of a single held seat. A booking is
// born PENDING_PAYMENT and moves exactly once into one of the terminal
// states; the persistence layer stores the numeric wire code, everything
// above it works with the typed value.
type BookingStatus string

const (
	StatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	StatusConfirmed      BookingStatus = "CONFIRMED"
	StatusFailed         BookingStatus = "FAILED"
	StatusExpired        BookingStatus = "EXPIRED"
	StatusCancelled      BookingStatus = "CANCELLED"
	StatusRefunded       BookingStatus = "REFUNDED"
)

// statusCodes is the storage representation. Codes are frozen; new states
// get new codes.
var statusCodes = map[BookingStatus]int64{
	StatusPendingPayment: 0,
	StatusConfirmed:      1,
	StatusFailed:         2,
	StatusExpired:        3,
	StatusCancelled:      4,
	StatusRefunded:       5,
}

var codeStatuses = map[int64]BookingStatus{
	0: StatusPendingPayment,
	1: StatusConfirmed,
	2: StatusFailed,
	3: StatusExpired,
	4: StatusCancelled,
	5: StatusRefunded,
}

// legalTransitions is the single source of truth for the state machine.
// Confirmed bookings may still be cancelled by the user; every other
// terminal state is absorbing.
var legalTransitions = map[BookingStatus][]BookingStatus{
	StatusPendingPayment: {StatusConfirmed, StatusFailed, StatusExpired, StatusCancelled},
	StatusConfirmed:      {StatusCancelled, StatusRefunded},
}

// Live reports whether the status still holds a seat claim.
func (s BookingStatus) Live() bool {
	return s == StatusPendingPayment || s == StatusConfirmed
}

// Terminal reports whether no further transition is allowed out of s.
func (s BookingStatus) Terminal() bool {
	return len(legalTransitions[s]) == 0
}

// CanTransition reports whether s -> to is a legal edge.
func (s BookingStatus) CanTransition(to BookingStatus) bool {
	for _, next := range legalTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ReleasesSeat reports whether entering s hands the seat back to the
// showtime inventory. Confirmation keeps the seat committed.
func (s BookingStatus) ReleasesSeat() bool {
	switch s {
	case StatusFailed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Code returns the smallint wire code used by the bookings table.
func (s BookingStatus) Code() int64 {
	code, ok := statusCodes[s]
	if !ok {
		return -1
	}
	return code
}

// StatusFromCode converts a stored code back into the typed status.
func StatusFromCode(code int64) (BookingStatus, error) {
	s, ok := codeStatuses[code]
	if !ok {
		return "", fmt.Errorf("unknown booking status code %d", code)
	}
	return s, nil
}

// Value implements driver.Valuer so bookings persist the numeric code.
func (s BookingStatus) Value() (driver.Value, error) {
	code, ok := statusCodes[s]
	if !ok {
		return nil, fmt.Errorf("invalid booking status %q", string(s))
	}
	return code, nil
}

// Scan implements sql.Scanner for the numeric code.
func (s *BookingStatus) Scan(src interface{}) error {
	code, ok := src.(int64)
	if !ok {
		return fmt.Errorf("cannot scan booking status from %T", src)
	}
	status, err := StatusFromCode(code)
	if err != nil {
		return err
	}
	*s = status
	return nil
}
