package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/medrec/medrec/internal/models"
	"github.com/medrec/medrec/pkg/crypto"
)

const (
	defaultTokenExpiry = 10 * time.Minute
	defaultTokenBytes  = 32
)

// TokenOption customises the TokenService.
type TokenOption func(*TokenService)

// WithTokenExpiry overrides the token lifetime.
func WithTokenExpiry(d time.Duration) TokenOption {
	return func(s *TokenService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithTokenClock injects a custom time source.
func WithTokenClock(clock func() time.Time) TokenOption {
	return func(s *TokenService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// TokenService is the verification-token ledger: it issues, validates,
// expires, and reissues the tokens gating patient account activation.
type TokenService struct {
	db        *gorm.DB
	expiry    time.Duration
	tokenSize int
	now       func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(db *gorm.DB, opts ...TokenOption) (*TokenService, error) {
	if db == nil {
		return nil, errors.New("token service: db is required")
	}

	service := &TokenService{
		db:        db,
		expiry:    defaultTokenExpiry,
		tokenSize: defaultTokenBytes,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Issue generates a fresh token for the patient, expiring at now + the
// configured lifetime. Any previous token rows for the same patient are
// removed first, so at most one token is live per patient.
func (s *TokenService) Issue(ctx context.Context, patientID string) (string, *models.VerificationToken, error) {
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		return "", nil, errors.New("token service: patient id is required")
	}

	value, err := crypto.GenerateToken(s.tokenSize)
	if err != nil {
		return "", nil, fmt.Errorf("token service: generate token: %w", err)
	}

	record := models.VerificationToken{
		PatientID: patientID,
		TokenHash: tokenHash(value),
		ExpiresAt: s.now().Add(s.expiry),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("patient_id = ?", patientID).
			Delete(&models.VerificationToken{}).Error; err != nil {
			return fmt.Errorf("supersede existing: %w", err)
		}
		return tx.Create(&record).Error
	})
	if err != nil {
		return "", nil, fmt.Errorf("token service: issue: %w", err)
	}

	return value, &record, nil
}

// Validate resolves a token value supplied by an external actor.
//
// Unknown values report ErrTokenNotFound. A token whose patient is already
// verified reports ErrAlreadyVerified without side effects. An expired
// token is deleted and reported as ErrTokenExpired. Otherwise the bound
// patient is marked verified and returned; the token row is retained, the
// ErrAlreadyVerified branch making a second validation harmless.
func (s *TokenService) Validate(ctx context.Context, value string) (*models.Patient, error) {
	record, err := s.find(ctx, value)
	if err != nil {
		return nil, err
	}

	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", record.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("token service: load patient: %w", err)
	}

	if patient.Checked {
		return nil, ErrAlreadyVerified
	}

	if record.Expired(s.now()) {
		if err := s.db.WithContext(ctx).Delete(record).Error; err != nil {
			return nil, fmt.Errorf("token service: delete expired: %w", err)
		}
		return nil, ErrTokenExpired
	}

	if err := s.db.WithContext(ctx).Model(&patient).Update("checked", true).Error; err != nil {
		return nil, fmt.Errorf("token service: mark verified: %w", err)
	}

	patient.Checked = true
	return &patient, nil
}

// Reissue replaces the value and expiry of an existing token in place and
// returns the new value. The old value stops validating immediately. An
// unknown old value is a precondition violation: the reissue flow is only
// reachable from a link that embeds a real token.
func (s *TokenService) Reissue(ctx context.Context, oldValue string) (string, *models.VerificationToken, error) {
	record, err := s.find(ctx, oldValue)
	if err != nil {
		return "", nil, err
	}

	value, err := crypto.GenerateToken(s.tokenSize)
	if err != nil {
		return "", nil, fmt.Errorf("token service: generate token: %w", err)
	}

	record.TokenHash = tokenHash(value)
	record.ExpiresAt = s.now().Add(s.expiry)

	if err := s.db.WithContext(ctx).Model(record).Updates(map[string]any{
		"token_hash": record.TokenHash,
		"expires_at": record.ExpiresAt,
	}).Error; err != nil {
		return "", nil, fmt.Errorf("token service: reissue: %w", err)
	}

	return value, record, nil
}

// Patient loads the patient bound to a token value without validating it.
func (s *TokenService) Patient(ctx context.Context, value string) (*models.Patient, error) {
	record, err := s.find(ctx, value)
	if err != nil {
		return nil, err
	}

	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", record.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("token service: load patient: %w", err)
	}
	return &patient, nil
}

// PurgeExpired removes token rows that expired before now minus the given
// grace period. Used by the maintenance cleaner.
func (s *TokenService) PurgeExpired(ctx context.Context, grace time.Duration) (int64, error) {
	cutoff := s.now().Add(-grace)
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.VerificationToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("token service: purge expired: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *TokenService) find(ctx context.Context, value string) (*models.VerificationToken, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, ErrTokenNotFound
	}

	var record models.VerificationToken
	if err := s.db.WithContext(ctx).
		Where("token_hash = ?", tokenHash(value)).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("token service: find token: %w", err)
	}
	return &record, nil
}

func tokenHash(value string) string {
	digest := sha256.Sum256([]byte(value))
	return hex.EncodeToString(digest[:])
}
