package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		orderID   string
		paymentID string
		secret    string
	}{
		{"simple", "gw_1", "pay_1", "secret"},
		{"empty payment id", "gw_1", "", "secret"},
		{"long secret", "order_abc", "pay_xyz", "a-much-longer-shared-secret-value-0123456789"},
		{"unicode ids", "gw_렌", "pay_é", "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := ComputeSignature(tt.orderID, tt.paymentID, tt.secret)
			assert.True(t, VerifySignature(tt.orderID, tt.paymentID, sig, tt.secret))
		})
	}
}

func TestVerifySignature_MatchesReferenceHMAC(t *testing.T) {
	// Independently computed digest over orderID + "|" + paymentID.
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("gw_1|pay_1"))
	sig := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifySignature("gw_1", "pay_1", sig, "secret"))
	assert.Equal(t, sig, ComputeSignature("gw_1", "pay_1", "secret"))
}

func TestVerifySignature_Mismatch(t *testing.T) {
	sig := ComputeSignature("gw_1", "pay_1", "secret")

	t.Run("wrong signature", func(t *testing.T) {
		assert.False(t, VerifySignature("gw_1", "pay_1", "deadbeef", "secret"))
	})
	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, VerifySignature("gw_1", "pay_1", sig, "other-secret"))
	})
	t.Run("wrong order id", func(t *testing.T) {
		assert.False(t, VerifySignature("gw_2", "pay_1", sig, "secret"))
	})
	t.Run("wrong payment id", func(t *testing.T) {
		assert.False(t, VerifySignature("gw_1", "pay_2", sig, "secret"))
	})
	t.Run("not hex", func(t *testing.T) {
		assert.False(t, VerifySignature("gw_1", "pay_1", "zzzz", "secret"))
	})
	t.Run("empty signature", func(t *testing.T) {
		assert.False(t, VerifySignature("gw_1", "pay_1", "", "secret"))
	})
}

func TestVerifySignature_SeparatorNotAmbiguous(t *testing.T) {
	// "a|b" + "c" and "a" + "b|c" must not produce the same digest.
	sig := ComputeSignature("a|b", "c", "secret")
	assert.False(t, VerifySignature("a", "b|c", sig, "secret"))
}
