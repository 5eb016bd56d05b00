package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vegnar/orders-api/internal/gateway"
)

// minorUnitFactor converts major currency units to minor units for
// two-decimal currencies (rupees to paise).
var minorUnitFactor = decimal.NewFromInt(100)

// defaultCurrency is applied when a request does not name one.
const defaultCurrency = "INR"

// ValidationError lists the request fields that are missing or invalid.
// The caller must fix the input; retrying unchanged cannot succeed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}

// CreationError is returned when an initiate attempt fails after validation.
// When OrphanedGatewayOrder is true, the gateway intent was created but the
// local record was not persisted; GatewayOrderID identifies the intent so
// operators can reconcile.
type CreationError struct {
	OrphanedGatewayOrder bool
	GatewayOrderID       string
	Err                  error
}

func (e *CreationError) Error() string {
	if e.OrphanedGatewayOrder {
		return fmt.Sprintf("order creation failed after gateway intent %s was created: %v", e.GatewayOrderID, e.Err)
	}
	return fmt.Sprintf("order creation failed: %v", e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

// InitiateRequest holds the input for starting a purchase.
type InitiateRequest struct {
	Amount            decimal.Decimal
	Currency          string
	FullName          string
	Email             string
	PhoneNumber       string
	Company           string
	ShippingAddress   string
	AdditionalMessage string
	SampleCount       int
	LineItems         []LineItem
}

// InitiateResult holds the persisted order plus what the client needs to
// complete payment with the gateway.
type InitiateResult struct {
	Order        *Order
	Intent       *gateway.Intent
	GatewayKeyID string
}

// ConfirmRequest carries the client-supplied proof that a payment completed.
type ConfirmRequest struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// ServiceConfig holds the gateway credentials the service needs: the public
// key id returned to clients and the shared secret used for signature
// verification. The secret never appears in results or logs.
type ServiceConfig struct {
	GatewayKeyID  string
	GatewaySecret string
}

// Notifier receives order lifecycle events. Errors are informational only:
// the service logs them and moves on, they never affect the order outcome.
type Notifier interface {
	OrderCreated(ctx context.Context, o *Order) error
}

// Service drives the payment-order lifecycle: intent creation, persistence,
// and verification-driven state transition. It holds no mutable state of its
// own; all order state lives in the Repository.
type Service struct {
	gateway  gateway.Client
	orders   Repository
	notifier Notifier
	keyID    string
	secret   string
}

// NewService creates an order lifecycle Service. notifier may be nil, in
// which case no notifications are sent.
func NewService(cfg ServiceConfig, gw gateway.Client, orders Repository, notifier Notifier) *Service {
	return &Service{
		gateway:  gw,
		orders:   orders,
		notifier: notifier,
		keyID:    cfg.GatewayKeyID,
		secret:   cfg.GatewaySecret,
	}
}

// Initiate validates the request, creates a payment intent with the gateway,
// and persists the order in StatusCreated. Nothing is persisted when the
// gateway call fails. A persistence failure after a successful gateway call
// returns a *CreationError with OrphanedGatewayOrder set.
func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if err := validateInitiate(req); err != nil {
		return nil, err
	}

	currency := req.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	sampleCount := req.SampleCount
	if sampleCount <= 0 {
		sampleCount = 1
	}

	// Minor-unit conversion truncates sub-minor precision; validation has
	// already guaranteed a positive amount.
	amountMinor := req.Amount.Mul(minorUnitFactor).IntPart()

	intent, err := s.gateway.CreateIntent(ctx, gateway.CreateIntentRequest{
		AmountMinor: amountMinor,
		Currency:    currency,
		Receipt:     newReceipt(),
	})
	if err != nil {
		return nil, &CreationError{Err: err}
	}

	saved, err := s.orders.Create(ctx, &Order{
		Amount:            req.Amount,
		Currency:          currency,
		GatewayOrderID:    intent.OrderID,
		Status:            StatusCreated,
		FullName:          req.FullName,
		Email:             req.Email,
		PhoneNumber:       req.PhoneNumber,
		Company:           req.Company,
		ShippingAddress:   req.ShippingAddress,
		AdditionalMessage: req.AdditionalMessage,
		SampleCount:       sampleCount,
		LineItems:         req.LineItems,
	})
	if err != nil {
		// The gateway intent exists but the local record does not. Surface
		// the intent id so the window can be reconciled.
		return nil, &CreationError{
			OrphanedGatewayOrder: true,
			GatewayOrderID:       intent.OrderID,
			Err:                  err,
		}
	}

	if s.notifier != nil {
		// Fire and forget: notification failures must not affect the outcome.
		go s.notifyCreated(context.WithoutCancel(ctx), saved)
	}

	return &InitiateResult{
		Order:        saved,
		Intent:       intent,
		GatewayKeyID: s.keyID,
	}, nil
}

// Confirm verifies the client-supplied payment proof and transitions the
// order to StatusPaid. Confirming an already-paid order is an idempotent
// success: the stored record is returned unchanged. A signature that does
// not verify returns ErrSignatureMismatch without touching any state.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) (*Order, error) {
	var missing []string
	if req.GatewayOrderID == "" {
		missing = append(missing, "gateway_order_id")
	}
	if req.GatewayPaymentID == "" {
		missing = append(missing, "gateway_payment_id")
	}
	if req.Signature == "" {
		missing = append(missing, "gateway_signature")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	if !gateway.VerifySignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature, s.secret) {
		// Security-relevant event: log minimally, no digests.
		zctx.From(ctx).Warn("payment signature mismatch",
			zap.String("gateway_order_id", req.GatewayOrderID),
		)
		return nil, ErrSignatureMismatch
	}

	o, err := s.orders.FindByGatewayOrderID(ctx, req.GatewayOrderID)
	if err != nil {
		return nil, err
	}
	if o.Status == StatusPaid {
		return o, nil
	}

	updated, err := s.orders.MarkPaid(ctx, req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
	if errors.Is(err, ErrNotFound) {
		// Lost a race with a concurrent confirmation. Re-read: if the order
		// is paid now, this caller gets the same idempotent success.
		o, findErr := s.orders.FindByGatewayOrderID(ctx, req.GatewayOrderID)
		if findErr != nil {
			return nil, findErr
		}
		if o.Status == StatusPaid {
			return o, nil
		}
		return nil, errors.Wrap(err, "mark paid")
	}
	if err != nil {
		return nil, errors.Wrap(err, "mark paid")
	}

	return updated, nil
}

func (s *Service) notifyCreated(ctx context.Context, o *Order) {
	if err := s.notifier.OrderCreated(ctx, o); err != nil {
		zctx.From(ctx).Error("order notification failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}

// validateInitiate collects every missing or invalid required field so the
// caller can fix them all at once.
func validateInitiate(req InitiateRequest) error {
	var fields []string
	if !req.Amount.IsPositive() {
		fields = append(fields, "amount")
	}
	if req.FullName == "" {
		fields = append(fields, "full_name")
	}
	if req.Email == "" {
		fields = append(fields, "email")
	}
	if req.ShippingAddress == "" {
		fields = append(fields, "shipping_address")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// newReceipt produces a receipt value unique per call. Gateways dedupe on
// the receipt, so a pure timestamp would collide under concurrent requests;
// the uuid suffix removes that window.
func newReceipt() string {
	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
