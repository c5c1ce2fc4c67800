package models

// Specialty is an admin-managed tag describing a doctor's field.
type Specialty struct {
	BaseModel

	Name string `gorm:"uniqueIndex;not null" json:"name"`
}
