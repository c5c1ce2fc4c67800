package models

// Admin manages the doctor directory and oversees bookings and payments.
type Admin struct {
	BaseModel

	FullName string `gorm:"not null" json:"full_name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	Role     string `gorm:"default:admin" json:"role"`
}
