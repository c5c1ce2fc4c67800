package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAppointmentResolved(t *testing.T) {
	var a Appointment
	require.False(t, a.Resolved())

	status := "Completed"
	a.Status = &status
	require.True(t, a.Resolved())
}

func TestVerificationTokenExpiredBoundary(t *testing.T) {
	expiry := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	token := VerificationToken{ExpiresAt: expiry}

	require.False(t, token.Expired(expiry.Add(-time.Second)))
	// now == expiry counts as expired, never valid.
	require.True(t, token.Expired(expiry))
	require.True(t, token.Expired(expiry.Add(time.Second)))
}

func TestTransactionSettled(t *testing.T) {
	var tr Transaction
	require.False(t, tr.Settled())

	payment := "pay_123"
	tr.PaymentID = &payment
	require.True(t, tr.Settled())
}
