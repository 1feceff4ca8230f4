package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-backend/billing"
)

func sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	const secret = "test_secret"
	sig := sign("order_abc", "pay_123", secret)

	require.NoError(t, VerifySignature("order_abc", "pay_123", sig, secret))
}

func TestVerifySignatureMismatch(t *testing.T) {
	const secret = "test_secret"
	sig := sign("order_abc", "pay_123", secret)

	cases := []struct {
		name                         string
		orderID, paymentID, sig, key string
	}{
		{"tampered signature", "order_abc", "pay_123", sig[:len(sig)-1] + "0", secret},
		{"different order", "order_xyz", "pay_123", sig, secret},
		{"different payment", "order_abc", "pay_999", sig, secret},
		{"wrong secret", "order_abc", "pay_123", sig, "other_secret"},
		{"empty signature", "order_abc", "pay_123", "", secret},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifySignature(tc.orderID, tc.paymentID, tc.sig, tc.key)
			require.Error(t, err)
			assert.True(t, billing.IsKind(err, billing.KindSecurity))
		})
	}
}

func TestVerifyConfirmation(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "test_secret")
	t.Setenv("PAYMENT_CURRENCY", "")
	a, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "rzp_test_key", a.KeyID())
	assert.Equal(t, billing.DefaultCurrency, a.Currency())

	conf := Confirmation{
		OrderID:   "order_abc",
		PaymentID: "pay_123",
		Signature: sign("order_abc", "pay_123", "test_secret"),
	}
	require.NoError(t, a.VerifyConfirmation(conf))

	conf.Signature = "bogus"
	err = a.VerifyConfirmation(conf)
	require.Error(t, err)
	assert.True(t, billing.IsKind(err, billing.KindSecurity))
}

func TestNewFromEnvMissingCredentials(t *testing.T) {
	t.Setenv("RAZORPAY_KEY_ID", "")
	t.Setenv("RAZORPAY_KEY_SECRET", "")

	_, err := NewFromEnv()
	require.Error(t, err)
}

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"530", 53000},
		{"10.55", 1055},
		{"0.01", 1},
		{"10.005", 1001},
		{"0", 0},
	}
	for _, tc := range cases {
		got := MinorUnits(decimal.RequireFromString(tc.in))
		assert.Equal(t, tc.want, got, "MinorUnits(%s)", tc.in)
	}
}
