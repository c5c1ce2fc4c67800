package models

// Transaction statuses mirrored from the payment gateway lifecycle.
const (
	TransactionCreated = "created"
	TransactionPaid    = "paid"
	TransactionFailed  = "failed"
)

// Transaction is the local record mirroring one gateway order. It is created
// together with the order and mutated exactly once by reconciliation; rows
// are never deleted.
type Transaction struct {
	BaseModel

	OrderID   string `gorm:"uniqueIndex;not null" json:"order_id"`
	Amount    string `gorm:"not null" json:"amount"`
	Receipt   string `json:"receipt"`
	Status    string `gorm:"not null" json:"status"`
	PatientID string `gorm:"type:uuid;not null;index" json:"patient_id"`

	// PaymentID stays nil until the client-side payment is reconciled.
	PaymentID *string `json:"payment_id"`
}

// Settled reports whether the reconciliation update has been applied.
func (t *Transaction) Settled() bool {
	return t.PaymentID != nil
}
