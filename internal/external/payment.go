package external

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"
)

type PaymentClient struct {
	baseURL      string
	merchantSlug string
	password     string
	httpClient   *http.Client
}

type PaymentConfig struct {
	BaseURL      string
	MerchantSlug string
	Password     string
	Timeout      time.Duration
}

// Hosted checkout models. Metadata round-trips the booking identifiers so
// the webhook handler can act on the later event without extra lookups.
type CreateSessionRequest struct {
	MerchantSlug    string            `json:"merchantSlug"`
	Token           string            `json:"token"`
	Amount          int64             `json:"amount"`
	OrderID         string            `json:"orderId"`
	Currency        string            `json:"currency"`
	Description     string            `json:"description,omitempty"`
	SuccessURL      string            `json:"successURL,omitempty"`
	FailURL         string            `json:"failURL,omitempty"`
	NotificationURL string            `json:"notificationURL,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type CreateSessionResponse struct {
	Success    bool   `json:"success"`
	SessionRef string `json:"sessionRef"`
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	PaymentURL string `json:"paymentURL"`
	ExpiresAt  string `json:"expiresAt"`
}

type CheckSessionRequest struct {
	MerchantSlug string `json:"merchantSlug"`
	Token        string `json:"token"`
	SessionRef   string `json:"sessionRef"`
}

type CheckSessionResponse struct {
	Success    bool   `json:"success"`
	SessionRef string `json:"sessionRef"`
	Status     string `json:"status"`
	TxnRef     string `json:"txnRef"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Method     string `json:"method"`
}

const (
	maxAttempts  = 3
	retryBackoff = 200 * time.Millisecond
)

func NewPaymentClient(cfg PaymentConfig) *PaymentClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &PaymentClient{
		baseURL:      cfg.BaseURL,
		merchantSlug: cfg.MerchantSlug,
		password:     cfg.Password,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// generateToken signs a request: SHA-256 over the alphabetically sorted
// parameter values plus merchant credentials.
func (pc *PaymentClient) generateToken(params map[string]string) string {
	params["MerchantSlug"] = pc.merchantSlug
	params["Password"] = pc.password

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var tokenString string
	for _, key := range keys {
		tokenString += params[key]
	}

	hash := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(hash[:])
}

// VerifyNotificationToken checks the signature the gateway puts on
// webhook payloads. Unverifiable events are rejected at the boundary
// before the reconciler sees them.
func (pc *PaymentClient) VerifyNotificationToken(sessionRef, status, token string) bool {
	expected := pc.generateToken(map[string]string{
		"SessionRef": sessionRef,
		"Status":     status,
	})
	return token == expected
}

// CreateSession creates a hosted checkout session for a hold batch.
func (pc *PaymentClient) CreateSession(ctx context.Context, amount int64, orderID, currency, description string, metadata map[string]string) (*CreateSessionResponse, error) {
	token := pc.generateToken(map[string]string{
		"Amount":   strconv.FormatInt(amount, 10),
		"Currency": currency,
		"OrderId":  orderID,
	})

	req := CreateSessionRequest{
		MerchantSlug: pc.merchantSlug,
		Token:        token,
		Amount:       amount,
		OrderID:      orderID,
		Currency:     currency,
		Description:  description,
		Metadata:     metadata,
	}

	var result CreateSessionResponse
	if err := pc.post(ctx, "/api/v1/sessions/create", req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("checkout session create failed: status %s", result.Status)
	}

	return &result, nil
}

// CheckSession is the synchronous status lookup backing the poll
// fallback when webhook delivery was missed.
func (pc *PaymentClient) CheckSession(ctx context.Context, sessionRef string) (*CheckSessionResponse, error) {
	token := pc.generateToken(map[string]string{
		"SessionRef": sessionRef,
	})

	req := CheckSessionRequest{
		MerchantSlug: pc.merchantSlug,
		Token:        token,
		SessionRef:   sessionRef,
	}

	var result CheckSessionResponse
	if err := pc.post(ctx, "/api/v1/sessions/check", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// CancelSession asks the gateway to void a session, best-effort.
func (pc *PaymentClient) CancelSession(ctx context.Context, sessionRef, reason string) error {
	token := pc.generateToken(map[string]string{
		"SessionRef": sessionRef,
	})

	req := map[string]interface{}{
		"merchantSlug": pc.merchantSlug,
		"token":        token,
		"sessionRef":   sessionRef,
		"reason":       reason,
	}

	return pc.post(ctx, "/api/v1/sessions/cancel", req, nil)
}

// post sends one JSON request with a small retry budget. The gateway is
// the only genuinely slow dependency on the booking path, so transient
// failures get two more attempts with backoff before surfacing.
func (pc *PaymentClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+path, bytes.NewReader(jsonBody))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := pc.httpClient.Do(req)
		if err == nil {
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			} else {
				defer resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
				}
				if out == nil {
					return nil
				}
				if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
					return fmt.Errorf("failed to decode response: %w", err)
				}
				return nil
			}
		} else {
			lastErr = err
		}

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		}
	}

	return fmt.Errorf("payment gateway request failed after %d attempts: %w", maxAttempts, lastErr)
}
