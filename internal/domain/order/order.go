package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order. The only valid transition is
// StatusCreated to StatusPaid; StatusPaid is terminal.
type Status string

const (
	StatusCreated Status = "created"
	StatusPaid    Status = "paid"
)

// Sentinel errors shared across the order lifecycle.
var (
	// ErrNotFound is returned when no order matches the given identifier.
	ErrNotFound = errors.New("order not found")

	// ErrSignatureMismatch is returned when a payment confirmation carries a
	// signature that does not verify against the gateway secret.
	ErrSignatureMismatch = errors.New("payment signature mismatch")

	// ErrDuplicateGatewayOrder indicates a data-integrity fault: more than one
	// local order shares a gateway order id. The store must never resolve this
	// by silently picking one.
	ErrDuplicateGatewayOrder = errors.New("multiple orders share one gateway order id")
)

// Order represents one purchase attempt. Amount is in major currency units;
// the gateway is always given the minor-unit equivalent.
type Order struct {
	ID       string
	Amount   decimal.Decimal
	Currency string

	// GatewayOrderID is assigned by the gateway at intent creation and is
	// immutable afterwards. GatewayPaymentID and GatewaySignature are set
	// exactly when Status is StatusPaid.
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	Status           Status

	FullName          string
	Email             string
	PhoneNumber       string
	Company           string
	ShippingAddress   string
	AdditionalMessage string
	SampleCount       int
	LineItems         []LineItem

	CreatedAt time.Time
}

// LineItem is a single product entry attached to an order.
type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Repository defines the persistence operations the lifecycle service needs.
// Implementations are the sole writer of record; the service never mutates a
// stored order except through MarkPaid.
type Repository interface {
	// Create persists a new order and returns it with the store-assigned ID
	// and CreatedAt populated.
	Create(ctx context.Context, o *Order) (*Order, error)

	// FindByGatewayOrderID returns the single order carrying the gateway
	// order id. It returns ErrNotFound when absent and
	// ErrDuplicateGatewayOrder when more than one row matches.
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)

	// MarkPaid transitions the order to StatusPaid, recording the payment id
	// and signature, conditional on the order currently being StatusCreated.
	// The condition serializes concurrent confirmations: exactly one caller
	// wins; losers receive ErrNotFound and must re-read to observe the paid
	// order.
	MarkPaid(ctx context.Context, gatewayOrderID, paymentID, signature string) (*Order, error)
}
