package models

import (
	"sort"
	"strconv"
	"time"
)

// BookingGroup is one logical purchase: every row sharing a payment
// session, or rows from the same insert batch before a session exists.
// Shared fields come from the earliest-created row.
type BookingGroup struct {
	UserID     string        `json:"user_id"`
	MovieID    string        `json:"movie_id"`
	ShowDate   string        `json:"show_date"`
	ShowTime   string        `json:"show_time"`
	ShowtimeID int64         `json:"showtime_id"`
	Status     BookingStatus `json:"status"`
	SessionRef *string       `json:"session_ref"`
	TxnRef     *string       `json:"txn_ref"`
	SeatIDs    []string      `json:"seat_ids"`
	BookingIDs []int64       `json:"booking_ids"`
	Amount     int64         `json:"amount"`
	CreatedAt  time.Time     `json:"created_at"`
}

type groupKey struct {
	sessionRef string
	fallback   string
}

// GroupBookings partitions rows into logical purchases. Primary key is
// the session reference when present; rows without one fall back to the
// composite (user, movie, date, time, showtime, status, created second).
func GroupBookings(bookings []Booking) []BookingGroup {
	byKey := make(map[groupKey]*BookingGroup)
	var order []groupKey

	for _, b := range bookings {
		key := keyFor(b)
		group, ok := byKey[key]
		if !ok {
			group = &BookingGroup{
				UserID:     b.UserID,
				MovieID:    b.MovieID,
				ShowDate:   b.ShowDate,
				ShowTime:   b.ShowTime,
				ShowtimeID: b.ShowtimeID,
				Status:     b.Status,
				SessionRef: b.SessionRef,
				TxnRef:     b.TxnRef,
				CreatedAt:  b.CreatedAt,
			}
			byKey[key] = group
			order = append(order, key)
		}

		group.SeatIDs = append(group.SeatIDs, b.SeatID)
		group.BookingIDs = append(group.BookingIDs, b.ID)
		group.Amount += b.Price

		// Earliest-created row wins for the shared fields.
		if b.CreatedAt.Before(group.CreatedAt) {
			group.CreatedAt = b.CreatedAt
			group.Status = b.Status
			group.TxnRef = b.TxnRef
		}
	}

	groups := make([]BookingGroup, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		sort.Strings(g.SeatIDs)
		groups = append(groups, *g)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt)
	})

	return groups
}

func keyFor(b Booking) groupKey {
	if b.SessionRef != nil && *b.SessionRef != "" {
		return groupKey{sessionRef: *b.SessionRef}
	}
	// Sub-second jitter between rows of one insert batch must not split
	// the group, so the timestamp is truncated to the second.
	created := b.CreatedAt.Truncate(time.Second).UTC().Format(time.RFC3339)
	return groupKey{
		fallback: b.UserID + "|" + b.MovieID + "|" + b.ShowDate + "|" + b.ShowTime + "|" +
			strconv.FormatInt(b.ShowtimeID, 10) + "|" + string(b.Status) + "|" + created,
	}
}
