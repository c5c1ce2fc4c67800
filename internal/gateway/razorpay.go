package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
)

const defaultCallTimeout = 15 * time.Second

// RazorpayClient adapts the Razorpay SDK to the Client interface.
type RazorpayClient struct {
	api     *razorpay.Client
	secret  string
	timeout time.Duration
}

// NewRazorpayClient builds a gateway client from API credentials.
func NewRazorpayClient(keyID, keySecret string) (*RazorpayClient, error) {
	if keyID == "" || keySecret == "" {
		return nil, errors.New("razorpay: key id and secret are required")
	}

	return &RazorpayClient{
		api:     razorpay.NewClient(keyID, keySecret),
		secret:  keySecret,
		timeout: defaultCallTimeout,
	}, nil
}

// CreateOrder creates a gateway order for the given amount in minor units.
// The SDK has no context support, so the call runs under a deadline and is
// abandoned when the context or timeout fires first.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	if amountMinor <= 0 {
		return nil, errors.New("razorpay: amount must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		payload map[string]interface{}
		err     error
	}
	done := make(chan result, 1)

	go func() {
		payload, err := c.api.Order.Create(map[string]interface{}{
			"amount":   amountMinor,
			"currency": currency,
			"receipt":  receipt,
		}, nil)
		done <- result{payload, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("razorpay: create order: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("razorpay: create order: %w", res.err)
		}
		return orderFromPayload(res.payload), nil
	}
}

// VerifyPaymentSignature checks the checkout callback signature, which is
// HMAC-SHA256 over "<order_id>|<payment_id>" keyed with the API secret.
func (c *RazorpayClient) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return verifySignature(c.secret, orderID, paymentID, signature)
}

func verifySignature(secret, orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func orderFromPayload(payload map[string]interface{}) *Order {
	order := &Order{
		ID:       stringField(payload, "id"),
		Currency: stringField(payload, "currency"),
		Receipt:  stringField(payload, "receipt"),
		Status:   stringField(payload, "status"),
	}
	if amount, ok := payload["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	return order
}

func stringField(payload map[string]interface{}, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}
