// Package handler exposes the payment-order lifecycle over HTTP.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/vegnar/orders-api/internal/domain/order"
)

// Handler serves the order endpoints, delegating business logic to the
// lifecycle service.
type Handler struct {
	orders *order.Service
}

// NewHandler constructs a Handler around the order lifecycle service.
func NewHandler(orders *order.Service) *Handler {
	return &Handler{orders: orders}
}

// Register mounts the order routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /orders/create", h.CreateOrder)
	mux.HandleFunc("POST /orders/verify", h.VerifyPayment)
}

// maxBodyBytes bounds request bodies; checkout payloads are small.
const maxBodyBytes = 1 << 20

// decodeBody decodes the JSON request body into dst. On failure it writes a
// 400 response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, r, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid request body",
		})
		return false
	}
	return true
}

// writeJSON writes status and body as JSON. Encoding failures can only mean
// the client went away; they are logged and otherwise ignored.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zctx.From(r.Context()).Debug("write response", zap.Error(err))
	}
}
