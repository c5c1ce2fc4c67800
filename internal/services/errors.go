package services

import (
	"net/http"

	apperrors "github.com/medrec/medrec/pkg/errors"
)

// Sentinel errors shared across the workflow services. Lookup failures on
// values supplied by external actors (a token from a URL, an order id from
// a client POST) carry user-visible messages; internal id lookups reuse
// the same sentinels but are treated as fatal by their callers.
var (
	ErrPatientNotFound = apperrors.New("PATIENT_NOT_FOUND",
		"Patient not found", http.StatusNotFound)
	ErrDoctorNotFound = apperrors.New("DOCTOR_NOT_FOUND",
		"Doctor not found", http.StatusNotFound)
	ErrAppointmentNotFound = apperrors.New("APPOINTMENT_NOT_FOUND",
		"Appointment not found", http.StatusNotFound)
	ErrTokenNotFound = apperrors.New("TOKEN_NOT_FOUND",
		"Invalid verification link", http.StatusNotFound)
	ErrTransactionNotFound = apperrors.New("TRANSACTION_NOT_FOUND",
		"No transaction matches this order", http.StatusNotFound)

	ErrEmailTaken = apperrors.New("EMAIL_TAKEN",
		"An account already exists with this email", http.StatusConflict)
	ErrSpecialtyExists = apperrors.New("SPECIALTY_EXISTS",
		"This specialty already exists", http.StatusConflict)

	ErrTokenExpired = apperrors.New("TOKEN_EXPIRED",
		"This verification link has expired", http.StatusGone)
	ErrAlreadyVerified = apperrors.New("ALREADY_VERIFIED",
		"This account has already been verified, please log in", http.StatusConflict)

	ErrTermsNotAccepted = apperrors.New("TERMS_NOT_ACCEPTED",
		"You have not agreed to the terms and conditions", http.StatusPreconditionFailed)
	ErrAppointmentResolved = apperrors.New("APPOINTMENT_RESOLVED",
		"A resolved appointment cannot be rescheduled", http.StatusPreconditionFailed)
	ErrAlreadySettled = apperrors.New("ALREADY_SETTLED",
		"This order has already been reconciled", http.StatusConflict)
	ErrBadSignature = apperrors.New("BAD_PAYMENT_SIGNATURE",
		"Payment signature verification failed", http.StatusPreconditionFailed)

	ErrGatewayUnavailable = apperrors.New("GATEWAY_UNAVAILABLE",
		"Payment gateway call failed", http.StatusBadGateway)
)
