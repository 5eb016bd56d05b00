package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vegnar/orders-api/internal/domain/order"
	"github.com/vegnar/orders-api/internal/gateway"
)

// createOrderRequest mirrors the storefront checkout payload. Amount is in
// major currency units.
type createOrderRequest struct {
	Amount            decimal.Decimal  `json:"amount"`
	Currency          string           `json:"currency"`
	FullName          string           `json:"full_name"`
	Email             string           `json:"email"`
	PhoneNumber       string           `json:"phone_number"`
	Company           string           `json:"company"`
	ShippingAddress   string           `json:"shipping_address"`
	AdditionalMessage string           `json:"additional_message"`
	NumberOfSamples   int              `json:"number_of_samples"`
	Products          []order.LineItem `json:"products"`
}

type createOrderResponse struct {
	Success  bool       `json:"success"`
	OrderID  string     `json:"order_id,omitempty"`
	Amount   int64      `json:"amount,omitempty"`
	Currency string     `json:"currency,omitempty"`
	Key      string     `json:"key,omitempty"`
	Order    *orderJSON `json:"order,omitempty"`
	Error    string     `json:"error,omitempty"`
	Details  string     `json:"details,omitempty"`
}

type verifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
}

type verifyPaymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// orderJSON is the wire form of a stored order. Gateway signature material
// is never echoed back.
type orderJSON struct {
	ID                string           `json:"id"`
	Amount            decimal.Decimal  `json:"amount"`
	Currency          string           `json:"currency"`
	GatewayOrderID    string           `json:"gateway_order_id"`
	Status            string           `json:"status"`
	FullName          string           `json:"full_name"`
	Email             string           `json:"email"`
	PhoneNumber       string           `json:"phone_number,omitempty"`
	Company           string           `json:"company,omitempty"`
	ShippingAddress   string           `json:"shipping_address"`
	AdditionalMessage string           `json:"additional_message,omitempty"`
	SampleCount       int              `json:"sample_count"`
	Products          []order.LineItem `json:"products,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

func toOrderJSON(o *order.Order) *orderJSON {
	return &orderJSON{
		ID:                o.ID,
		Amount:            o.Amount,
		Currency:          o.Currency,
		GatewayOrderID:    o.GatewayOrderID,
		Status:            string(o.Status),
		FullName:          o.FullName,
		Email:             o.Email,
		PhoneNumber:       o.PhoneNumber,
		Company:           o.Company,
		ShippingAddress:   o.ShippingAddress,
		AdditionalMessage: o.AdditionalMessage,
		SampleCount:       o.SampleCount,
		Products:          o.LineItems,
		CreatedAt:         o.CreatedAt,
	}
}

// CreateOrder handles POST /orders/create: it creates a gateway payment
// intent, persists the order, and returns what the storefront needs to open
// the gateway checkout.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.orders.Initiate(r.Context(), order.InitiateRequest{
		Amount:            req.Amount,
		Currency:          req.Currency,
		FullName:          req.FullName,
		Email:             req.Email,
		PhoneNumber:       req.PhoneNumber,
		Company:           req.Company,
		ShippingAddress:   req.ShippingAddress,
		AdditionalMessage: req.AdditionalMessage,
		SampleCount:       req.NumberOfSamples,
		LineItems:         req.Products,
	})
	if err != nil {
		h.writeCreateError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, createOrderResponse{
		Success:  true,
		OrderID:  result.Intent.OrderID,
		Amount:   result.Intent.AmountMinor,
		Currency: result.Intent.Currency,
		Key:      result.GatewayKeyID,
		Order:    toOrderJSON(result.Order),
	})
}

// writeCreateError maps initiate failures onto the response envelope.
// Gateway-side failures keep the storefront's observed contract: a 200 body
// with success=false and the upstream description in details.
func (h *Handler) writeCreateError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *order.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, r, http.StatusBadRequest, createOrderResponse{
			Success: false,
			Error:   "invalid request",
			Details: valErr.Error(),
		})
		return
	}

	var createErr *order.CreationError
	if errors.As(err, &createErr) {
		if createErr.OrphanedGatewayOrder {
			// The gateway intent exists without a local record. Log the id
			// for reconciliation; the client gets a generic failure.
			zctx.From(r.Context()).Error("order not persisted after gateway intent",
				zap.String("gateway_order_id", createErr.GatewayOrderID),
				zap.Error(createErr.Err),
			)
			writeJSON(w, r, http.StatusInternalServerError, createOrderResponse{
				Success: false,
				Error:   "order creation failed",
			})
			return
		}

		var rejected *gateway.RejectedError
		if errors.As(createErr.Err, &rejected) {
			writeJSON(w, r, http.StatusOK, createOrderResponse{
				Success: false,
				Error:   "payment gateway error",
				Details: rejected.Description,
			})
			return
		}

		var unavailable *gateway.UnavailableError
		if errors.As(createErr.Err, &unavailable) {
			zctx.From(r.Context()).Error("payment gateway unavailable", zap.Error(unavailable))
			writeJSON(w, r, http.StatusOK, createOrderResponse{
				Success: false,
				Error:   "payment gateway error",
				Details: "payment gateway is unavailable, please retry",
			})
			return
		}
	}

	zctx.From(r.Context()).Error("create order failed", zap.Error(err))
	writeJSON(w, r, http.StatusInternalServerError, createOrderResponse{
		Success: false,
		Error:   "order creation failed",
	})
}

// VerifyPayment handles POST /orders/verify: it checks the client-supplied
// payment proof and transitions the order to paid. Re-submitting a proof for
// an already-paid order succeeds without changing anything.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	_, err := h.orders.Confirm(r.Context(), order.ConfirmRequest{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.GatewaySignature,
	})
	switch {
	case err == nil:
		writeJSON(w, r, http.StatusOK, verifyPaymentResponse{
			Success: true,
			Message: "payment verified successfully",
		})

	case isValidationError(err):
		writeJSON(w, r, http.StatusBadRequest, verifyPaymentResponse{
			Success: false,
			Message: err.Error(),
		})

	case errors.Is(err, order.ErrSignatureMismatch):
		writeJSON(w, r, http.StatusOK, verifyPaymentResponse{
			Success: false,
			Message: "invalid signature",
		})

	case errors.Is(err, order.ErrNotFound):
		writeJSON(w, r, http.StatusNotFound, verifyPaymentResponse{
			Success: false,
			Message: "order not found",
		})

	default:
		zctx.From(r.Context()).Error("verify payment failed", zap.Error(err))
		writeJSON(w, r, http.StatusInternalServerError, verifyPaymentResponse{
			Success: false,
			Message: "payment verification failed",
		})
	}
}

func isValidationError(err error) bool {
	var valErr *order.ValidationError
	return errors.As(err, &valErr)
}
