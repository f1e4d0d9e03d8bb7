package models

// CreateShowtimeRequest - модель для административного создания сеанса
type CreateShowtimeRequest struct {
	MovieID        string `json:"movie_id" binding:"required"`
	ShowDate       string `json:"show_date" binding:"required"`
	ShowTime       string `json:"show_time" binding:"required"`
	ScreenFormat   string `json:"screen_format" binding:"required"`
	TotalSeats     int    `json:"total_seats" binding:"required"`
	AvailableSeats *int   `json:"available_seats"`
	Price          int64  `json:"price" binding:"required"`
}

// UpdateShowtimeRequest - частичное обновление сеанса
type UpdateShowtimeRequest struct {
	ShowDate     *string `json:"show_date"`
	ShowTime     *string `json:"show_time"`
	ScreenFormat *string `json:"screen_format"`
	TotalSeats   *int    `json:"total_seats"`
	Price        *int64  `json:"price"`
}

// ListShowtimesResponseItem carries the counters so callers can compute
// sold/percentage without a second query.
type ListShowtimesResponseItem struct {
	ID             int64  `json:"id"`
	MovieID        string `json:"movie_id"`
	ShowDate       string `json:"show_date"`
	ShowTime       string `json:"show_time"`
	ScreenFormat   string `json:"screen_format"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
	Price          int64  `json:"price"`
}

// CreateBookingRequest - модель для создания брони (hold) на места
type CreateBookingRequest struct {
	ShowtimeID int64    `json:"showtime_id" binding:"required"`
	MovieID    string   `json:"movie_id" binding:"required"`
	ShowDate   string   `json:"show_date" binding:"required"`
	ShowTime   string   `json:"show_time" binding:"required"`
	SeatIDs    []string `json:"seat_ids" binding:"required"`
	Price      int64    `json:"price" binding:"required"`
}

// CreateBookingResponse returns the held rows so the caller can proceed
// straight to checkout.
type CreateBookingResponse struct {
	Bookings []Booking `json:"bookings"`
}

// CheckoutRequest - модель для инициации платежной сессии
type CheckoutRequest struct {
	BookingIDs []int64 `json:"booking_ids" binding:"required"`
}

// CheckoutResponse carries the hosted checkout handle.
type CheckoutResponse struct {
	SessionRef string `json:"session_ref"`
	PaymentURL string `json:"payment_url"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

// CancelBookingsRequest - модель для отмены броней
type CancelBookingsRequest struct {
	BookingIDs []int64 `json:"booking_ids" binding:"required"`
}

// CancelBookingsResponse reports how many of the requested IDs were
// actually cancelled.
type CancelBookingsResponse struct {
	Cancelled int64 `json:"cancelled"`
}

// SeatMapEntry is the per-seat projection used to render a seat map.
type SeatMapEntry struct {
	SeatID string        `json:"seat_id"`
	Status BookingStatus `json:"status"`
}

// ExpireResponse reports the sweeper outcome.
type ExpireResponse struct {
	Expired int64 `json:"expired"`
}

// PaymentNotificationPayload - модель webhook уведомления от платежного
// шлюза. Token подписывает поля и проверяется до обработки.
type PaymentNotificationPayload struct {
	SessionRef string `json:"sessionRef" binding:"required"`
	Status     string `json:"status" binding:"required"`
	TxnRef     string `json:"txnRef"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Method     string `json:"method"`
	Timestamp  string `json:"timestamp"`
	Token      string `json:"token"`
}

// Movie is the catalog projection served to the UI. All fields come from
// the external provider; only the ID is trusted.
type Movie struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ReleaseDate string   `json:"release_date"`
	RuntimeMin  int      `json:"runtime_min"`
	Genres      []string `json:"genres"`
	PosterPath  string   `json:"poster_path"`
}

// ShowtimeAnalytics - модель ответа аналитики для сеанса
type ShowtimeAnalytics struct {
	ShowtimeID    int64 `json:"showtime_id"`
	TotalSeats    int   `json:"total_seats"`
	AvailableSeat int   `json:"available_seats"`
	HeldSeats     int   `json:"held_seats"`
	SoldSeats     int   `json:"sold_seats"`
	Revenue       int64 `json:"revenue"`
}
