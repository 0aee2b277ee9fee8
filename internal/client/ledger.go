package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/qchaucoin/ledger/internal/model"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the ledger server.
type APIError struct {
	Status  int
	Code    uint32
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger api: status %d (code %d): %s", e.Status, e.Code, e.Message)
}

// LedgerClient client for the QchauCoin ledger API
type LedgerClient struct {
	baseURL string
	client  *http.Client
	token   string
}

// NewLedgerClient creates a new ledger client for baseURL.
func NewLedgerClient(baseURL string) *LedgerClient {
	return &LedgerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetToken sets the bearer token sent with authenticated requests.
func (c *LedgerClient) SetToken(token string) {
	c.token = token
}

// Login logs in and keeps the returned session token.
func (c *LedgerClient) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	req := model.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	c.token = resp.Token
	return &resp, nil
}

// Balance gets the balance of the account owning publicKey.
func (c *LedgerClient) Balance(ctx context.Context, publicKey string) (*model.BalanceResponse, error) {
	var resp model.BalanceResponse
	path := "/balance?publicKey=" + url.QueryEscape(publicKey)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return &resp, nil
}

// Transfer submits a signed transfer. Requires a session.
func (c *LedgerClient) Transfer(ctx context.Context, req *model.TransferRequest) (*model.TransferResponse, error) {
	var resp model.TransferResponse
	if err := c.do(ctx, http.MethodPost, "/transfer", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to submit transfer: %w", err)
	}
	return &resp, nil
}

// Chain gets every block.
func (c *LedgerClient) Chain(ctx context.Context) (*model.ChainResponse, error) {
	var resp model.ChainResponse
	if err := c.do(ctx, http.MethodGet, "/chain", nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to get chain: %w", err)
	}
	return &resp, nil
}

func (c *LedgerClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp model.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
