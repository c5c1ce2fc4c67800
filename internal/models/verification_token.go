package models

import "time"

// VerificationToken is a short-lived opaque credential proving control of a
// patient's email address. Only the SHA-256 hash of the token value is
// stored; one row exists per patient at a time and reissue overwrites the
// hash and expiry in place.
type VerificationToken struct {
	BaseModel

	PatientID string    `gorm:"type:uuid;not null;index" json:"patient_id"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

// Expired reports whether the token is no longer valid at the given instant.
// The boundary instant itself counts as expired.
func (v *VerificationToken) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
