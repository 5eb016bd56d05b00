// Package gateway talks to the external payment gateway: creating payment
// intents and verifying the HMAC signatures the gateway issues for completed
// payments.
package gateway

import (
	"context"
	"fmt"
)

// CreateIntentRequest holds the input for creating a payment intent.
// AmountMinor is the amount in the currency's minor units (paise for INR).
type CreateIntentRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
}

// Intent is a gateway-side record representing an authorized-but-unconfirmed
// payment request.
type Intent struct {
	OrderID     string
	AmountMinor int64
	Currency    string
}

// Client creates payment intents with the external gateway.
type Client interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
}

// UnavailableError indicates the gateway could not be reached or did not
// answer in time. Safe to retry with backoff; no state was changed locally.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("payment gateway unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// RejectedError indicates the gateway refused the request. The attempt is
// permanent for these parameters; Description carries the gateway's
// human-readable reason.
type RejectedError struct {
	StatusCode  int
	Description string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("payment gateway rejected request (status %d): %s", e.StatusCode, e.Description)
}
