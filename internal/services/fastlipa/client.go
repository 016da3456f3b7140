package fastlipa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
)

var (
	ErrValidation                = errors.New("validation error")
	ErrInvalidPhoneFormat        = errors.New("invalid phone number format")
	ErrGatewayUnavailable        = errors.New("payment gateway unavailable")
	ErrTransactionCreationFailed = errors.New("transaction creation failed")
	ErrStatusCheckFailed         = errors.New("transaction status check failed")
)

type Config struct {
	BaseURL     string
	Token       string
	CountryCode string
}

// Client talks to the FastLipa mobile-money gateway. All wire-shape quirks of
// the gateway stay inside this package; callers only see normalized results.
type Client struct {
	baseURL     string
	token       string
	countryCode string
	http        *http.Client
}

type Transaction struct {
	ID          string
	Amount      int
	PhoneNumber string
	Status      string
	Message     string
}

type StatusResult struct {
	TransactionID string
	PaymentStatus string
	Amount        string
	Network       string
	Message       string
	Raw           json.RawMessage
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	countryCode := cfg.CountryCode
	if countryCode == "" {
		countryCode = defaultCountryCode
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		countryCode: countryCode,
		http:        httpClient,
	}
}

func (c *Client) NormalizePhone(raw string) (string, error) {
	return NormalizePhone(raw, c.countryCode)
}

type createRequest struct {
	Number string `json:"number"`
	Amount int    `json:"amount"`
	Name   string `json:"name"`
}

type createResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		TranID string      `json:"tranID"`
		Amount json.Number `json:"amount"`
		Number string      `json:"number"`
		Status string      `json:"status"`
	} `json:"data"`
}

func (c *Client) CreateTransaction(ctx context.Context, phoneNumber string, amount float64, name string) (Transaction, error) {
	if strings.TrimSpace(phoneNumber) == "" || strings.TrimSpace(name) == "" {
		return Transaction{}, ErrValidation
	}
	units := int(math.Round(amount))
	if units <= 0 {
		return Transaction{}, ErrValidation
	}

	number, err := c.NormalizePhone(phoneNumber)
	if err != nil {
		return Transaction{}, err
	}

	body, err := json.Marshal(createRequest{
		Number: number,
		Amount: units,
		Name:   strings.TrimSpace(name),
	})
	if err != nil {
		return Transaction{}, fmt.Errorf("marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create-transaction", bytes.NewReader(body))
	if err != nil {
		return Transaction{}, fmt.Errorf("build create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	var parsed createResponse
	if err := c.do(req, &parsed, nil); err != nil {
		return Transaction{}, err
	}

	if !strings.EqualFold(parsed.Status, "success") {
		if parsed.Message != "" {
			return Transaction{}, fmt.Errorf("%w: %s", ErrTransactionCreationFailed, parsed.Message)
		}
		return Transaction{}, ErrTransactionCreationFailed
	}

	echoed, _ := parsed.Data.Amount.Int64()
	if echoed == 0 {
		echoed = int64(units)
	}

	return Transaction{
		ID:          parsed.Data.TranID,
		Amount:      int(echoed),
		PhoneNumber: parsed.Data.Number,
		Status:      parsed.Data.Status,
		Message:     parsed.Message,
	}, nil
}

// statusResponse tolerates the two field-name variants the gateway is known to
// return for the transaction id (tranid/tranID) and the status
// (payment_status/status), at both the data and top levels.
type statusResponse struct {
	Status        string      `json:"status"`
	Message       string      `json:"message"`
	PaymentStatus string      `json:"payment_status"`
	TranIDLower   string      `json:"tranid"`
	TranIDUpper   string      `json:"tranID"`
	Data          statusData  `json:"data"`
	Amount        json.Number `json:"amount"`
	Network       string      `json:"network"`
}

type statusData struct {
	TranIDLower   string      `json:"tranid"`
	TranIDUpper   string      `json:"tranID"`
	PaymentStatus string      `json:"payment_status"`
	Status        string      `json:"status"`
	Amount        json.Number `json:"amount"`
	Network       string      `json:"network"`
}

func (r statusResponse) normalize(raw json.RawMessage) StatusResult {
	paymentStatus := firstNonEmpty(r.Data.PaymentStatus, r.Data.Status, r.PaymentStatus)
	if paymentStatus == "" {
		paymentStatus = "UNKNOWN"
	}

	return StatusResult{
		TransactionID: firstNonEmpty(r.Data.TranIDLower, r.Data.TranIDUpper, r.TranIDLower, r.TranIDUpper),
		PaymentStatus: paymentStatus,
		Amount:        firstNonEmpty(string(r.Data.Amount), string(r.Amount)),
		Network:       firstNonEmpty(r.Data.Network, r.Network),
		Message:       r.Message,
		Raw:           raw,
	}
}

func (c *Client) CheckStatus(ctx context.Context, transactionID string) (StatusResult, error) {
	if strings.TrimSpace(transactionID) == "" {
		return StatusResult{}, ErrValidation
	}

	endpoint := c.baseURL + "/status-transaction?tranid=" + url.QueryEscape(transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return StatusResult{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	var (
		parsed statusResponse
		raw    json.RawMessage
	)
	if err := c.do(req, &parsed, &raw); err != nil {
		return StatusResult{}, err
	}

	if !strings.EqualFold(parsed.Status, "success") {
		if parsed.Message != "" {
			return StatusResult{}, fmt.Errorf("%w: %s", ErrStatusCheckFailed, parsed.Message)
		}
		return StatusResult{}, ErrStatusCheckFailed
	}

	return parsed.normalize(raw), nil
}

func (c *Client) do(req *http.Request, target any, rawOut *json.RawMessage) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure struct {
			Message string `json:"message"`
		}
		if unmarshalErr := json.Unmarshal(body, &failure); unmarshalErr == nil && failure.Message != "" {
			return fmt.Errorf("%w: http %d: %s", ErrGatewayUnavailable, resp.StatusCode, failure.Message)
		}
		return fmt.Errorf("%w: http %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrGatewayUnavailable, err)
	}
	if rawOut != nil {
		*rawOut = json.RawMessage(body)
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
