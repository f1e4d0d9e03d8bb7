package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Validator гоняет smoke-проверки против запущенного инстанса API.
// Запускается как `api validate` после деплоя.
type Validator struct {
	baseURL    string
	httpClient *http.Client
	results    []Result
	smokeSeat  string
}

type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Duration time.Duration
}

func NewValidator(baseURL string) *Validator {
	return &Validator{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Run executes the full smoke suite in dependency order and returns an
// error if any check failed.
func (v *Validator) Run() error {
	v.check("health", v.checkHealth)
	v.check("showtimes listing", v.checkShowtimes)
	v.check("booking hold", v.checkBookingHold)
	v.check("seat conflict", v.checkSeatConflict)
	v.check("seat map", v.checkSeatMap)

	failed := 0
	for _, r := range v.results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %-18s %s (%s)\n", status, r.Name, r.Detail, r.Duration)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(v.results))
	}
	return nil
}

func (v *Validator) check(name string, fn func() (string, error)) {
	start := time.Now()
	detail, err := fn()
	r := Result{Name: name, Duration: time.Since(start), Detail: detail}
	if err != nil {
		r.Detail = err.Error()
	} else {
		r.Passed = true
	}
	v.results = append(v.results, r)
}

func (v *Validator) checkHealth() (string, error) {
	resp, err := v.httpClient.Get(v.baseURL + "/health")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return "healthy", nil
}

func (v *Validator) checkShowtimes() (string, error) {
	resp, err := v.httpClient.Get(v.baseURL + "/api/showtimes?movie_id=smoke-movie")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Showtimes []struct {
			ID int64 `json:"id"`
		} `json:"showtimes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if len(body.Showtimes) == 0 {
		return "", fmt.Errorf("no showtimes materialized")
	}
	return fmt.Sprintf("%d showtimes", len(body.Showtimes)), nil
}

// smoke booking target; the lazy schedule guarantees this slot exists
var smokeBooking = map[string]interface{}{
	"movie_id":  "smoke-movie",
	"show_time": "11:00",
	"price":     int64(1200),
}

func (v *Validator) bookingPayload(seatIDs []string) ([]byte, error) {
	showDate := time.Now().Format("2006-01-02")

	resp, err := v.httpClient.Get(v.baseURL + "/api/showtimes?movie_id=smoke-movie&date_from=" + showDate + "&date_to=" + showDate)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Showtimes []struct {
			ID       int64  `json:"id"`
			ShowTime string `json:"show_time"`
		} `json:"showtimes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var showtimeID int64
	for _, st := range body.Showtimes {
		if st.ShowTime == smokeBooking["show_time"] {
			showtimeID = st.ID
			break
		}
	}
	if showtimeID == 0 {
		return nil, fmt.Errorf("smoke showtime not found")
	}

	payload := map[string]interface{}{
		"showtime_id": showtimeID,
		"show_date":   showDate,
		"seat_ids":    seatIDs,
	}
	for k, val := range smokeBooking {
		payload[k] = val
	}
	return json.Marshal(payload)
}

func (v *Validator) postBooking(seatIDs []string) (*http.Response, error) {
	payload, err := v.bookingPayload(seatIDs)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, v.baseURL+"/api/bookings", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "smoke-validator")

	return v.httpClient.Do(req)
}

func (v *Validator) checkBookingHold() (string, error) {
	seat := fmt.Sprintf("Z%d", time.Now().Unix()%900+100)
	v.smokeSeat = seat

	resp, err := v.postBooking([]string{seat})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return "seat " + seat + " held", nil
}

func (v *Validator) checkSeatConflict() (string, error) {
	if v.smokeSeat == "" {
		return "", fmt.Errorf("no held seat to conflict with")
	}

	resp, err := v.postBooking([]string{v.smokeSeat})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		return "", fmt.Errorf("expected 409, got %d", resp.StatusCode)
	}
	return "double-hold rejected", nil
}

func (v *Validator) checkSeatMap() (string, error) {
	showDate := time.Now().Format("2006-01-02")
	resp, err := v.httpClient.Get(v.baseURL + "/api/bookings/seatmap?movie_id=smoke-movie&show_date=" + showDate + "&show_time=11:00")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Seats []struct {
			SeatID string `json:"seat_id"`
		} `json:"seats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}

	for _, s := range body.Seats {
		if s.SeatID == v.smokeSeat {
			return "held seat visible", nil
		}
	}
	return "", fmt.Errorf("held seat %s missing from map", v.smokeSeat)
}
