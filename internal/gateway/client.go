package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
)

// maxResponseBytes bounds how much of a gateway response body is read.
const maxResponseBytes = 1 << 20

var _ Client = (*HTTPClient)(nil)

// HTTPClientConfig configures an HTTPClient.
type HTTPClientConfig struct {
	// BaseURL is the gateway API root, e.g. https://api.razorpay.com.
	BaseURL string
	// KeyID and KeySecret are the basic-auth credentials issued by the gateway.
	KeyID     string
	KeySecret string
	// Timeout bounds each call end to end. Zero means 8 seconds.
	Timeout time.Duration
}

// HTTPClient implements Client against a Razorpay-compatible orders API.
type HTTPClient struct {
	baseURL   string
	keyID     string
	keySecret string
	hc        *http.Client
}

// NewHTTPClient returns an HTTPClient with a bounded per-call timeout.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPClient{
		baseURL:   cfg.BaseURL,
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		hc:        &http.Client{Timeout: timeout},
	}
}

// intentRequest is the gateway wire format for creating an order intent.
type intentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// intentResponse is the subset of the gateway order object we consume.
type intentResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// errorResponse is the gateway's error envelope.
type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateIntent creates a payment intent at the gateway. Transport failures
// and 5xx answers surface as *UnavailableError; 4xx answers surface as
// *RejectedError carrying the gateway's description.
func (c *HTTPClient) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	body, err := json.Marshal(intentRequest{
		Amount:   req.AmountMinor,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal intent request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build intent request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UnavailableError{Err: errors.Wrap(err, "read response")}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &UnavailableError{Err: errors.Errorf("gateway returned status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		var gwErr errorResponse
		// Description stays empty if the body is not the expected envelope.
		_ = json.Unmarshal(data, &gwErr)
		desc := gwErr.Error.Description
		if desc == "" {
			desc = http.StatusText(resp.StatusCode)
		}
		return nil, &RejectedError{StatusCode: resp.StatusCode, Description: desc}
	}

	var out intentResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &UnavailableError{Err: errors.Wrap(err, "decode response")}
	}
	if out.ID == "" {
		return nil, &UnavailableError{Err: errors.New("gateway response missing order id")}
	}

	return &Intent{
		OrderID:     out.ID,
		AmountMinor: out.Amount,
		Currency:    out.Currency,
	}, nil
}
