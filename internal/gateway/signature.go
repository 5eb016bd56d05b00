package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// ComputeSignature returns the hex HMAC-SHA256 digest the gateway issues for
// a completed payment: keyed by secret over "orderID|paymentID".
func ComputeSignature(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether claimed is the gateway signature for the
// given order and payment identifiers. The comparison is constant-time so
// response timing cannot leak digest bytes. Callers must not log the secret
// or the expected digest.
func VerifySignature(orderID, paymentID, claimed, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := mac.Sum(nil)

	claimedBytes, err := hex.DecodeString(claimed)
	if err != nil {
		// Not valid hex, cannot match. Length and charset are not secret.
		return false
	}

	return subtle.ConstantTimeCompare(expected, claimedBytes) == 1
}
