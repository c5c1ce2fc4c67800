package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/medrec/medrec/internal/models"
	"github.com/medrec/medrec/pkg/crypto"
	apperrors "github.com/medrec/medrec/pkg/errors"
	"github.com/medrec/medrec/pkg/logger"
	"github.com/medrec/medrec/pkg/mail"
	"github.com/medrec/medrec/pkg/metrics"
)

// RegistrationInput is the sign-up payload for a new patient account.
type RegistrationInput struct {
	FullName      string `json:"full_name" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	AcceptedTerms bool   `json:"accepted_terms"`
}

// RegistrationOption customises the RegistrationService.
type RegistrationOption func(*RegistrationService)

// WithMailTimeout bounds the background verification-email delivery.
func WithMailTimeout(d time.Duration) RegistrationOption {
	return func(s *RegistrationService) {
		if d > 0 {
			s.mailTimeout = d
		}
	}
}

// RegistrationService creates patient accounts and drives the email
// verification round trip through the token ledger and the mailer.
type RegistrationService struct {
	db          *gorm.DB
	tokens      *TokenService
	mailer      mail.Mailer
	baseURL     string
	mailTimeout time.Duration
	log         *zap.Logger
}

// NewRegistrationService constructs a RegistrationService. baseURL is the
// externally reachable root used to build verification links.
func NewRegistrationService(db *gorm.DB, tokens *TokenService, mailer mail.Mailer, baseURL string, opts ...RegistrationOption) (*RegistrationService, error) {
	if db == nil {
		return nil, errors.New("registration service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("registration service: token service is required")
	}
	if mailer == nil {
		return nil, errors.New("registration service: mailer is required")
	}

	service := &RegistrationService{
		db:          db,
		tokens:      tokens,
		mailer:      mailer,
		baseURL:     strings.TrimRight(baseURL, "/"),
		mailTimeout: 30 * time.Second,
		log:         logger.WithModule("registration"),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Register creates a disabled-for-login patient account and dispatches the
// verification email in the background. The account is committed before the
// email goes out: a delivery failure never rolls back the registration,
// the patient can always ask for a resend.
func (s *RegistrationService) Register(ctx context.Context, input RegistrationInput) (*models.Patient, error) {
	if !input.AcceptedTerms {
		return nil, ErrTermsNotAccepted
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Patient{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("registration service: check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("registration service: hash password: %w", err)
	}

	patient := &models.Patient{
		FullName: strings.TrimSpace(input.FullName),
		Email:    email,
		Password: hashed,
		Role:     models.RolePatient,
		Enabled:  true,
	}
	if err := s.db.WithContext(ctx).Create(patient).Error; err != nil {
		return nil, fmt.Errorf("registration service: create patient: %w", err)
	}

	// The account is already committed; token or delivery problems from
	// here on are logged rather than unwinding the registration.
	if value, _, err := s.tokens.Issue(ctx, patient.ID); err != nil {
		metrics.VerificationEmails.WithLabelValues("initial", "failure").Inc()
		s.log.Warn("issue verification token failed",
			zap.String("patient_id", patient.ID), zap.Error(err))
	} else {
		s.sendAsync(patient, s.verificationMessage(patient, value), "initial")
	}

	s.log.Info("patient registered", zap.String("patient_id", patient.ID))
	return patient, nil
}

// VerifyEmail consumes a verification link.
func (s *RegistrationService) VerifyEmail(ctx context.Context, tokenValue string) (*models.Patient, error) {
	return s.tokens.Validate(ctx, tokenValue)
}

// ResendVerification rotates the previous token and sends a fresh link.
// Unlike registration, the caller is waiting on the outcome of this send,
// so delivery happens inline and failures surface to them.
func (s *RegistrationService) ResendVerification(ctx context.Context, oldTokenValue string) error {
	newValue, record, err := s.tokens.Reissue(ctx, oldTokenValue)
	if err != nil {
		return err
	}

	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", record.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPatientNotFound
		}
		return fmt.Errorf("registration service: load patient: %w", err)
	}
	if patient.Checked {
		return ErrAlreadyVerified
	}

	if err := s.mailer.Send(ctx, s.resendMessage(&patient, newValue)); err != nil {
		metrics.VerificationEmails.WithLabelValues("resend", "failure").Inc()
		s.log.Warn("resend verification email failed",
			zap.String("patient_id", patient.ID), zap.Error(err))
		return apperrors.ErrUpstreamFailure.WithMessage("Could not send the verification email").WithInternal(err)
	}

	metrics.VerificationEmails.WithLabelValues("resend", "success").Inc()
	return nil
}

// VerificationURL builds the link embedded in verification emails.
func (s *RegistrationService) VerificationURL(tokenValue string) string {
	return s.baseURL + "/register/verifyEmail?token=" + url.QueryEscape(tokenValue)
}

// ResendURL builds the link patients follow to rotate an expired token.
func (s *RegistrationService) ResendURL(tokenValue string) string {
	return s.baseURL + "/register/resend-verification-token?token=" + url.QueryEscape(tokenValue)
}

func (s *RegistrationService) verificationMessage(patient *models.Patient, tokenValue string) mail.Message {
	link := s.VerificationURL(tokenValue)
	return mail.Message{
		To:      patient.Email,
		Subject: "Verify your email address",
		Body: fmt.Sprintf(
			"<p>Hello %s,</p><p>Thanks for registering. Please confirm your email address within 10 minutes:</p><p><a href=%q>Verify my email</a></p>",
			patient.FullName, link),
	}
}

func (s *RegistrationService) resendMessage(patient *models.Patient, tokenValue string) mail.Message {
	link := s.VerificationURL(tokenValue)
	return mail.Message{
		To:      patient.Email,
		Subject: "Your new verification link",
		Body: fmt.Sprintf(
			"<p>Hello %s,</p><p>Here is your new verification link, valid for 10 minutes:</p><p><a href=%q>Verify my email</a></p>",
			patient.FullName, link),
	}
}

func (s *RegistrationService) sendAsync(patient *models.Patient, msg mail.Message, kind string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.mailTimeout)
		defer cancel()

		if err := s.mailer.Send(ctx, msg); err != nil {
			metrics.VerificationEmails.WithLabelValues(kind, "failure").Inc()
			s.log.Warn("verification email failed",
				zap.String("patient_id", patient.ID), zap.Error(err))
			return
		}
		metrics.VerificationEmails.WithLabelValues(kind, "success").Inc()
	}()
}
