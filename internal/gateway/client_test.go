package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *HTTPClient {
	return NewHTTPClient(HTTPClientConfig{
		BaseURL:   baseURL,
		KeyID:     "key_test",
		KeySecret: "secret_test",
		Timeout:   2 * time.Second,
	})
}

func TestCreateIntent_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_test", user)
		assert.Equal(t, "secret_test", pass)

		var req intentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(50000), req.Amount)
		assert.Equal(t, "INR", req.Currency)
		assert.NotEmpty(t, req.Receipt)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       "gw_1",
			"amount":   req.Amount,
			"currency": req.Currency,
			"status":   "created",
		})
	}))
	defer srv.Close()

	intent, err := newTestClient(srv.URL).CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinor: 50000,
		Currency:    "INR",
		Receipt:     "order_1_abcd",
	})
	require.NoError(t, err)

	assert.Equal(t, "gw_1", intent.OrderID)
	assert.Equal(t, int64(50000), intent.AmountMinor)
	assert.Equal(t, "INR", intent.Currency)
}

func TestCreateIntent_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":        "BAD_REQUEST_ERROR",
				"description": "amount must be at least 100",
			},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinor: 1,
		Currency:    "INR",
		Receipt:     "order_2_abcd",
	})

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
	assert.Equal(t, "amount must be at least 100", rejected.Description)
}

func TestCreateIntent_RejectedWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinor: 100,
		Currency:    "INR",
		Receipt:     "order_3_abcd",
	})

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Unauthorized", rejected.Description)
}

func TestCreateIntent_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinor: 100,
		Currency:    "INR",
		Receipt:     "order_4_abcd",
	})

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestCreateIntent_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused

	_, err := newTestClient(srv.URL).CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinor: 100,
		Currency:    "INR",
		Receipt:     "order_5_abcd",
	})

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestCreateIntent_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	c := NewHTTPClient(HTTPClientConfig{
		BaseURL:   srv.URL,
		KeyID:     "key_test",
		KeySecret: "secret_test",
		Timeout:   50 * time.Millisecond,
	})

	_, err := c.CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinor: 100,
		Currency:    "INR",
		Receipt:     "order_6_abcd",
	})

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestCreateIntent_MissingOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"amount": 100}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).CreateIntent(context.Background(), CreateIntentRequest{
		AmountMinor: 100,
		Currency:    "INR",
		Receipt:     "order_7_abcd",
	})

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
}
