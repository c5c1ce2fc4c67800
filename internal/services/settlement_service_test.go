package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/medrec/medrec/internal/database/testutil"
	"github.com/medrec/medrec/internal/gateway"
	"github.com/medrec/medrec/internal/models"
)

type fakeGateway struct {
	nextID    string
	createErr error
	validSig  string
	orders    []gateway.Order
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountMinor int64, currency, receipt string) (*gateway.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	order := gateway.Order{
		ID:       f.nextID,
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}
	f.orders = append(f.orders, order)
	return &order, nil
}

func (f *fakeGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return signature == f.validSig
}

func newSettlementFixture(t *testing.T, fake *fakeGateway) (*SettlementService, *gorm.DB, *models.Patient) {
	t.Helper()
	db := testutil.MustOpenTestDB(t)

	svc, err := NewSettlementService(db, fake)
	require.NoError(t, err)

	patient := &models.Patient{
		FullName: "Asha Rao",
		Email:    "asha@example.com",
		Password: "hash",
		Enabled:  true,
		Checked:  true,
	}
	require.NoError(t, db.Create(patient).Error)

	return svc, db, patient
}

func TestCreateOrderMirrorsGateway(t *testing.T) {
	fake := &fakeGateway{nextID: "order_100", validSig: "sig"}
	svc, db, patient := newSettlementFixture(t, fake)

	transaction, order, err := svc.CreateOrder(context.Background(), patient.ID, 500)
	require.NoError(t, err)
	require.Equal(t, "order_100", order.ID)
	require.EqualValues(t, 50000, order.Amount) // paise
	require.Equal(t, "INR", order.Currency)

	require.Equal(t, models.TransactionCreated, transaction.Status)
	require.Equal(t, "500", transaction.Amount)
	require.Nil(t, transaction.PaymentID)

	var stored models.Transaction
	require.NoError(t, db.First(&stored, "order_id = ?", "order_100").Error)
	require.Equal(t, patient.ID, stored.PatientID)
}

func TestCreateOrderGatewayFailureLeavesNoRow(t *testing.T) {
	fake := &fakeGateway{createErr: errors.New("gateway down")}
	svc, db, patient := newSettlementFixture(t, fake)

	_, _, err := svc.CreateOrder(context.Background(), patient.ID, 500)
	require.ErrorIs(t, err, ErrGatewayUnavailable)

	var count int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	fake := &fakeGateway{nextID: "order_100"}
	svc, _, patient := newSettlementFixture(t, fake)

	_, _, err := svc.CreateOrder(context.Background(), patient.ID, 0)
	require.Error(t, err)
	_, _, err = svc.CreateOrder(context.Background(), patient.ID, -10)
	require.Error(t, err)
}

func TestReconcileSettlesTransaction(t *testing.T) {
	fake := &fakeGateway{nextID: "order_100", validSig: "good-sig"}
	svc, db, patient := newSettlementFixture(t, fake)

	_, _, err := svc.CreateOrder(context.Background(), patient.ID, 500)
	require.NoError(t, err)

	settled, err := svc.Reconcile(context.Background(), ReconcileInput{
		OrderID:   "order_100",
		PaymentID: "pay_42",
		Signature: "good-sig",
	})
	require.NoError(t, err)
	require.True(t, settled.Settled())
	require.Equal(t, models.TransactionPaid, settled.Status)

	var stored models.Transaction
	require.NoError(t, db.First(&stored, "order_id = ?", "order_100").Error)
	require.NotNil(t, stored.PaymentID)
	require.Equal(t, "pay_42", *stored.PaymentID)
}

func TestReconcileBadSignatureMarksFailed(t *testing.T) {
	fake := &fakeGateway{nextID: "order_100", validSig: "good-sig"}
	svc, db, patient := newSettlementFixture(t, fake)

	_, _, err := svc.CreateOrder(context.Background(), patient.ID, 500)
	require.NoError(t, err)

	_, err = svc.Reconcile(context.Background(), ReconcileInput{
		OrderID:   "order_100",
		PaymentID: "pay_42",
		Signature: "forged",
	})
	require.ErrorIs(t, err, ErrBadSignature)

	var stored models.Transaction
	require.NoError(t, db.First(&stored, "order_id = ?", "order_100").Error)
	require.Equal(t, models.TransactionFailed, stored.Status)
	require.Nil(t, stored.PaymentID)
}

func TestReconcileUnknownOrder(t *testing.T) {
	fake := &fakeGateway{nextID: "order_100", validSig: "sig"}
	svc, _, _ := newSettlementFixture(t, fake)

	_, err := svc.Reconcile(context.Background(), ReconcileInput{
		OrderID:   "order_missing",
		PaymentID: "pay_42",
		Signature: "sig",
	})
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestReconcileTwiceReportsAlreadySettled(t *testing.T) {
	fake := &fakeGateway{nextID: "order_100", validSig: "good-sig"}
	svc, _, patient := newSettlementFixture(t, fake)

	_, _, err := svc.CreateOrder(context.Background(), patient.ID, 500)
	require.NoError(t, err)

	input := ReconcileInput{OrderID: "order_100", PaymentID: "pay_42", Signature: "good-sig"}
	_, err = svc.Reconcile(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Reconcile(context.Background(), input)
	require.ErrorIs(t, err, ErrAlreadySettled)
}

func TestListForPatientOrdersNewestFirst(t *testing.T) {
	fake := &fakeGateway{validSig: "sig"}
	svc, _, patient := newSettlementFixture(t, fake)

	for i := 0; i < 3; i++ {
		fake.nextID = fmt.Sprintf("order_%d", i)
		_, _, err := svc.CreateOrder(context.Background(), patient.ID, 100)
		require.NoError(t, err)
	}

	list, err := svc.ListForPatient(context.Background(), patient.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
}
