package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/shopspring/decimal"

	"hospital-backend/billing"
)

// Adapter brokers order creation and confirmation verification against the
// Razorpay API. The gateway is untrusted until a confirmation passes the
// signature check, and amounts are never taken from the client.
type Adapter struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
	currency  string
}

// NewFromEnv builds an adapter from RAZORPAY_KEY_ID / RAZORPAY_KEY_SECRET
// (and optional PAYMENT_CURRENCY).
func NewFromEnv() (*Adapter, error) {
	keyID := strings.TrimSpace(os.Getenv("RAZORPAY_KEY_ID"))
	keySecret := strings.TrimSpace(os.Getenv("RAZORPAY_KEY_SECRET"))
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay credentials not configured (set RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET)")
	}
	currency := strings.TrimSpace(os.Getenv("PAYMENT_CURRENCY"))
	if currency == "" {
		currency = billing.DefaultCurrency
	}
	return &Adapter{
		client:    razorpay.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
		currency:  currency,
	}, nil
}

// KeyID is the public key the checkout UI needs.
func (a *Adapter) KeyID() string { return a.keyID }

func (a *Adapter) Currency() string { return a.currency }

// Order is the gateway-issued descriptor for one checkout attempt. It is
// ephemeral: an order that never confirms simply never produces a payment.
type Order struct {
	OrderID  string `json:"order_id"`
	BillID   string `json:"bill_id"`
	Amount   int64  `json:"amount"` // minor unit (paise)
	Currency string `json:"currency"`
}

// MinorUnits converts a two-decimal amount to the gateway's minor unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}

// CreateOrder requests a gateway order for the given amount. It does not
// touch the bill; failures are safe to retry.
func (a *Adapter) CreateOrder(amount decimal.Decimal, billID string) (*Order, error) {
	data := map[string]interface{}{
		"amount":   MinorUnits(amount),
		"currency": a.currency,
		"receipt":  "bill_" + billID,
		"notes": map[string]interface{}{
			"bill_id": billID,
		},
	}
	body, err := a.client.Order.Create(data, nil)
	if err != nil {
		return nil, billing.External("payment gateway order creation failed", err)
	}
	orderID, ok := body["id"].(string)
	if !ok || orderID == "" {
		return nil, billing.External("payment gateway returned no order id", nil)
	}
	return &Order{
		OrderID:  orderID,
		BillID:   billID,
		Amount:   MinorUnits(amount),
		Currency: a.currency,
	}, nil
}

// Confirmation is the checkout callback payload as relayed by the client.
// Client-reported success means nothing until VerifyConfirmation passes.
type Confirmation struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// VerifyConfirmation checks the signature Razorpay computes over
// "<order_id>|<payment_id>" with the shared secret.
func (a *Adapter) VerifyConfirmation(conf Confirmation) error {
	return VerifySignature(conf.OrderID, conf.PaymentID, conf.Signature, a.keySecret)
}

// VerifySignature recomputes the HMAC-SHA256 hex digest and compares it in
// constant time. A mismatch is a security failure, not a validation one: the
// payment must not be applied.
func VerifySignature(orderID, paymentID, signature, secret string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return billing.Securityf("invalid payment signature")
	}
	return nil
}
