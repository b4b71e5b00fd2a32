package pix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewayError wraps a failed gateway call. Retryable errors (network,
// timeout, 5xx) may be retried with backoff; the caller must reuse the
// transaction id when one was issued, since the remote charge may exist
// even when the call failed.
type GatewayError struct {
	Retryable bool
	Err       error
}

func (e *GatewayError) Error() string {
	return "pix gateway: " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a retryable gateway failure.
func IsRetryable(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Retryable
}

// Client talks to the BSPay Pix API
type Client struct {
	baseURL    string
	clientID   string
	clientKey  string
	httpClient *http.Client
}

// NewClient creates a new Pix gateway client
func NewClient(baseURL, clientID, clientKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		clientID:  clientID,
		clientKey: clientKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ChargeRequest is the charge-creation payload sent to the gateway.
type ChargeRequest struct {
	TransactionID string `json:"external_id"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	PayerName     string `json:"payer_name"`
	PayerEmail    string `json:"payer_email"`
	PayerDocument string `json:"payer_document,omitempty"`
	ExpiresIn     int    `json:"expires_in"`
}

// ChargeResponse is the gateway's answer to a charge creation.
type ChargeResponse struct {
	TransactionID string    `json:"transaction_id"`
	PayCode       string    `json:"pix_code"`
	QRAsset       string    `json:"qr_code"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// CreateCharge registers a Pix charge with the gateway and returns the
// copy-paste code and QR asset. Network and 5xx failures come back as
// retryable GatewayErrors; 4xx responses are permanent.
func (c *Client) CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &GatewayError{Retryable: false, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v2/pix/qrcode", bytes.NewReader(body))
	if err != nil {
		return nil, &GatewayError{Retryable: false, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("ci", c.clientID)
	httpReq.Header.Set("cs", c.clientKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &GatewayError{Retryable: true, Err: fmt.Errorf("gateway %s: %s", resp.Status, string(b))}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		return nil, &GatewayError{Retryable: false, Err: fmt.Errorf("gateway %s: %s", resp.Status, string(b))}
	}

	var out ChargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &GatewayError{Retryable: false, Err: err}
	}
	if out.TransactionID == "" {
		out.TransactionID = req.TransactionID
	}

	return &out, nil
}

// GetChargeStatus queries the gateway for the current status of a charge.
// Used as a polling fallback when the creation call timed out and the
// caller does not know whether the remote charge exists.
func (c *Client) GetChargeStatus(ctx context.Context, transactionID string) (string, error) {
	url := fmt.Sprintf("%s/v2/pix/qrcode/%s/status", c.baseURL, transactionID)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", &GatewayError{Retryable: false, Err: err}
	}
	req.Header.Set("ci", c.clientID)
	req.Header.Set("cs", c.clientKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &GatewayError{Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", &GatewayError{Retryable: resp.StatusCode >= 500, Err: fmt.Errorf("gateway %s: %s", resp.Status, string(b))}
	}

	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &GatewayError{Retryable: false, Err: err}
	}

	return out.Status, nil
}
