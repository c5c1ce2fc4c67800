package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/medrec/medrec/internal/gateway"
	"github.com/medrec/medrec/internal/models"
	apperrors "github.com/medrec/medrec/pkg/errors"
	"github.com/medrec/medrec/pkg/logger"
	"github.com/medrec/medrec/pkg/metrics"
)

const defaultCurrency = "INR"

// ReconcileInput carries the three identifiers handed back by the gateway
// checkout once the client-side payment completes.
type ReconcileInput struct {
	OrderID   string `json:"order_id" validate:"required"`
	PaymentID string `json:"payment_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// SettlementOption customises the SettlementService.
type SettlementOption func(*SettlementService)

// WithCurrency overrides the currency used for new orders.
func WithCurrency(currency string) SettlementOption {
	return func(s *SettlementService) {
		if currency != "" {
			s.currency = currency
		}
	}
}

// SettlementService mirrors gateway payment orders into local transaction
// rows and settles them once the checkout hands back a signed payment.
type SettlementService struct {
	db       *gorm.DB
	gateway  gateway.Client
	currency string
	log      *zap.Logger
}

// NewSettlementService constructs a SettlementService.
func NewSettlementService(db *gorm.DB, client gateway.Client, opts ...SettlementOption) (*SettlementService, error) {
	if db == nil {
		return nil, errors.New("settlement service: db is required")
	}
	if client == nil {
		return nil, errors.New("settlement service: gateway client is required")
	}

	service := &SettlementService{
		db:       db,
		gateway:  client,
		currency: defaultCurrency,
		log:      logger.WithModule("settlement"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// CreateOrder asks the gateway for a new order over the given major-unit
// amount and mirrors it locally in the created state. The gateway call runs
// first; a gateway failure leaves no local row behind.
func (s *SettlementService) CreateOrder(ctx context.Context, patientID string, amount int64) (*models.Transaction, *gateway.Order, error) {
	if amount <= 0 {
		return nil, nil, apperrors.NewBadRequest("amount must be positive")
	}
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return nil, nil, apperrors.NewBadRequest("patient id is required")
	}

	receipt := "rcpt_" + patientID
	order, err := s.gateway.CreateOrder(ctx, amount*100, s.currency, receipt)
	if err != nil {
		metrics.PaymentOrders.WithLabelValues("failed").Inc()
		s.log.Warn("gateway order creation failed", zap.Error(err))
		return nil, nil, ErrGatewayUnavailable.WithInternal(err)
	}

	transaction := &models.Transaction{
		OrderID:   order.ID,
		Amount:    strconv.FormatInt(amount, 10),
		Receipt:   receipt,
		Status:    models.TransactionCreated,
		PatientID: patientID,
	}
	if err := s.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return nil, nil, fmt.Errorf("settlement service: create order: %w", err)
	}

	metrics.PaymentOrders.WithLabelValues("created").Inc()
	s.log.Info("payment order created",
		zap.String("order_id", order.ID),
		zap.Int64("amount", amount))
	return transaction, order, nil
}

// Reconcile settles the transaction behind a completed checkout. The
// gateway signature is verified before any state changes; a bad signature
// marks the row failed so the mismatch stays visible.
func (s *SettlementService) Reconcile(ctx context.Context, input ReconcileInput) (*models.Transaction, error) {
	transaction, err := s.Lookup(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if transaction.Settled() {
		return nil, ErrAlreadySettled
	}

	if !s.gateway.VerifyPaymentSignature(input.OrderID, input.PaymentID, input.Signature) {
		metrics.PaymentReconciliations.WithLabelValues("rejected").Inc()
		s.log.Warn("payment signature mismatch", zap.String("order_id", input.OrderID))

		if err := s.db.WithContext(ctx).Model(transaction).
			Update("status", models.TransactionFailed).Error; err != nil {
			return nil, fmt.Errorf("settlement service: mark failed: %w", err)
		}
		return nil, ErrBadSignature
	}

	if err := s.db.WithContext(ctx).Model(transaction).Updates(map[string]any{
		"payment_id": input.PaymentID,
		"status":     models.TransactionPaid,
	}).Error; err != nil {
		return nil, fmt.Errorf("settlement service: reconcile: %w", err)
	}

	transaction.PaymentID = &input.PaymentID
	transaction.Status = models.TransactionPaid

	metrics.PaymentReconciliations.WithLabelValues("paid").Inc()
	s.log.Info("payment reconciled",
		zap.String("order_id", input.OrderID),
		zap.String("payment_id", input.PaymentID))
	return transaction, nil
}

// Lookup finds the local transaction mirroring one gateway order.
func (s *SettlementService) Lookup(ctx context.Context, orderID string) (*models.Transaction, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, ErrTransactionNotFound
	}

	var transaction models.Transaction
	if err := s.db.WithContext(ctx).First(&transaction, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("settlement service: lookup: %w", err)
	}
	return &transaction, nil
}

// ListForPatient returns a patient's transactions, newest first.
func (s *SettlementService) ListForPatient(ctx context.Context, patientID string) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("settlement service: list for patient: %w", err)
	}
	return transactions, nil
}

// ListAll returns every transaction, newest first.
func (s *SettlementService) ListAll(ctx context.Context) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&transactions).Error; err != nil {
		return nil, fmt.Errorf("settlement service: list all: %w", err)
	}
	return transactions, nil
}
