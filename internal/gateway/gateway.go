package gateway

import "context"

// Order is the gateway-side object created to collect one payment.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // smallest currency units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client is the payment-gateway contract the settlement workflow depends
// on. Order creation and payment-signature verification are the only
// operations used.
type Client interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}
