package models

// Doctor is a clinical actor who resolves assigned appointments.
type Doctor struct {
	BaseModel

	FullName      string `gorm:"not null" json:"full_name"`
	DOB           string `json:"dob"`
	Qualification string `json:"qualification"`
	Specialty     string `gorm:"index" json:"specialty"`
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	Phone         string `json:"phone"`
	Password      string `gorm:"not null" json:"-"`
	ImageURL      string `json:"image_url"`
}
