// Package gateway is the adapter to the Paystack payment processor. It
// carries no business logic and no retry policy; retries belong to the
// reconciliation layer.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rentals/internal/domain"
)

const defaultBaseURL = "https://api.paystack.co"

// InitRequest carries the fields for a transaction initialization.
// AmountMinor is in kobo. Subaccount and TransactionCharge enable split
// settlement to the property owner.
type InitRequest struct {
	Email             string         `json:"email"`
	AmountMinor       int64          `json:"amount"`
	Reference         string         `json:"reference"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	Subaccount        string         `json:"subaccount,omitempty"`
	TransactionCharge int64          `json:"transaction_charge,omitempty"`
	CallbackURL       string         `json:"callback_url,omitempty"`
}

type InitResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// VerifyResult reports the gateway-side transaction state. Status is one of
// "success", "failed", "pending" (plus transient Paystack states which the
// caller treats as pending). Raw keeps the untouched gateway payload.
type VerifyResult struct {
	Status      string          `json:"status"`
	Reference   string          `json:"reference"`
	AmountMinor int64           `json:"amount"`
	Currency    string          `json:"currency"`
	Channel     string          `json:"channel"`
	PaidAt      string          `json:"paid_at"`
	Raw         json.RawMessage `json:"-"`
}

type SubaccountRequest struct {
	BusinessName     string  `json:"business_name"`
	SettlementBank   string  `json:"settlement_bank"`
	AccountNumber    string  `json:"account_number"`
	PercentageCharge float64 `json:"percentage_charge"`
}

type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Client talks to the Paystack REST API. The HTTP client is injectable so
// tests can point BaseURL at a local server.
type Client struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

func NewClient(secretKey string) *Client {
	return &Client{
		BaseURL:   defaultBaseURL,
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: 20 * time.Second},
	}
}

// envelope is Paystack's uniform response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) InitializeTransaction(ctx context.Context, req InitRequest) (InitResult, error) {
	var out InitResult
	data, err := c.call(ctx, http.MethodPost, "/transaction/initialize", req, "initialize")
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, domain.GatewayError{Op: "initialize", Msg: "malformed response", Err: err}
	}
	return out, nil
}

func (c *Client) VerifyTransaction(ctx context.Context, reference string) (VerifyResult, error) {
	var out VerifyResult
	data, err := c.call(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, "verify")
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, domain.GatewayError{Op: "verify", Msg: "malformed response", Err: err}
	}
	out.Raw = data
	return out, nil
}

func (c *Client) CreateSubaccount(ctx context.Context, req SubaccountRequest) (string, error) {
	data, err := c.call(ctx, http.MethodPost, "/subaccount", req, "create_subaccount")
	if err != nil {
		return "", err
	}
	var out struct {
		SubaccountCode string `json:"subaccount_code"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", domain.GatewayError{Op: "create_subaccount", Msg: "malformed response", Err: err}
	}
	return out.SubaccountCode, nil
}

func (c *Client) ListBanks(ctx context.Context) ([]Bank, error) {
	data, err := c.call(ctx, http.MethodGet, "/bank?country=nigeria", nil, "list_banks")
	if err != nil {
		return nil, err
	}
	var out []Bank
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, domain.GatewayError{Op: "list_banks", Msg: "malformed response", Err: err}
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, method, path string, body any, op string) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, domain.GatewayError{Op: op, Msg: "encode request", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, domain.GatewayError{Op: op, Msg: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, domain.GatewayError{Op: op, Msg: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.GatewayError{Op: op, Msg: "read response", Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, domain.GatewayError{Op: op, Msg: fmt.Sprintf("unexpected response (http %d)", resp.StatusCode), Err: err}
	}
	if resp.StatusCode >= 400 || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("http %d", resp.StatusCode)
		}
		return nil, domain.GatewayError{Op: op, Msg: msg}
	}
	return env.Data, nil
}
