package models

// Role names carried in access tokens and stored on principals.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Patient is an end user who books appointments and pays for them.
// Checked flips to true only through successful email verification.
type Patient struct {
	BaseModel

	FullName string `gorm:"not null" json:"full_name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"default:patient" json:"role"`

	// Enabled records agreement to the terms of service at registration.
	Enabled bool `gorm:"default:false" json:"enabled"`
	// Checked records that the patient's email address has been verified.
	Checked bool `gorm:"default:false" json:"checked"`

	ImageURL string `json:"image_url"`
}
