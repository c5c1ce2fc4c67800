package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/medrec/medrec/internal/models"
	"github.com/medrec/medrec/pkg/crypto"
	apperrors "github.com/medrec/medrec/pkg/errors"
)

// ErrEmailUnverified blocks patients who have not completed email verification.
var ErrEmailUnverified = apperrors.New("EMAIL_UNVERIFIED",
	"Please verify your email address before logging in", 403)

// Principal is the authenticated actor resolved from credentials or a token.
// It is passed explicitly into workflow calls; there is no process-global
// current-user state.
type Principal struct {
	ID       string
	Role     string
	FullName string
	Email    string
}

// AuthService authenticates the three actor types against their tables.
type AuthService struct {
	db  *gorm.DB
	jwt *JWTService
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, jwt *JWTService) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if jwt == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	return &AuthService{db: db, jwt: jwt}, nil
}

// Login verifies credentials for the given role and returns the principal
// with a signed access token. Patients must have verified their email.
func (s *AuthService) Login(ctx context.Context, email, password, role string) (*Principal, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", apperrors.NewBadRequest("email and password are required")
	}

	principal, hashed, checked, err := s.lookup(ctx, email, role)
	if err != nil {
		return nil, "", err
	}

	if !crypto.VerifyPassword(hashed, password) {
		return nil, "", apperrors.ErrInvalidCredentials
	}
	if principal.Role == models.RolePatient && !checked {
		return nil, "", ErrEmailUnverified
	}

	token, err := s.jwt.GenerateAccessToken(principal.ID, principal.Role)
	if err != nil {
		return nil, "", fmt.Errorf("auth service: issue token: %w", err)
	}

	return principal, token, nil
}

func (s *AuthService) lookup(ctx context.Context, email, role string) (*Principal, string, bool, error) {
	switch role {
	case models.RolePatient:
		var patient models.Patient
		if err := s.db.WithContext(ctx).Where("email = ?", email).First(&patient).Error; err != nil {
			return nil, "", false, credentialError(err)
		}
		return &Principal{ID: patient.ID, Role: models.RolePatient, FullName: patient.FullName, Email: patient.Email},
			patient.Password, patient.Checked, nil

	case models.RoleDoctor:
		var doctor models.Doctor
		if err := s.db.WithContext(ctx).Where("email = ?", email).First(&doctor).Error; err != nil {
			return nil, "", false, credentialError(err)
		}
		return &Principal{ID: doctor.ID, Role: models.RoleDoctor, FullName: doctor.FullName, Email: doctor.Email},
			doctor.Password, true, nil

	case models.RoleAdmin:
		var admin models.Admin
		if err := s.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error; err != nil {
			return nil, "", false, credentialError(err)
		}
		return &Principal{ID: admin.ID, Role: models.RoleAdmin, FullName: admin.FullName, Email: admin.Email},
			admin.Password, true, nil

	default:
		return nil, "", false, apperrors.NewBadRequest("unknown role")
	}
}

func credentialError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Indistinguishable from a bad password on purpose.
		return apperrors.ErrInvalidCredentials
	}
	return fmt.Errorf("auth service: lookup: %w", err)
}
