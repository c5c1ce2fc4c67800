package models

// DateLayout is the calendar-date format stored on appointments.
const DateLayout = "2006-01-02"

// Appointment captures one booking from creation through clinical resolution.
// Contact fields are denormalised at booking time so the record stays
// meaningful even if the patient profile changes later.
//
// Status nil marks the booking unresolved; a doctor sets Status and MedDisc
// together when resolving. No other state exists.
type Appointment struct {
	BaseModel

	PatientID string `gorm:"type:uuid;not null;index" json:"patient_id"`
	FullName  string `gorm:"not null" json:"full_name"`
	Gender    string `json:"gender"`
	Age       string `json:"age"`
	Date      string `gorm:"not null;index" json:"date"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Disease   string `json:"disease"`
	DoctorID  string `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Address   string `json:"address"`

	Status  *string `json:"status"`
	MedDisc string  `json:"med_disc"`

	// DoctorName is decorated by list queries; never persisted.
	DoctorName string `gorm:"-" json:"doctor_name,omitempty"`
}

// Resolved reports whether a doctor has recorded an outcome.
func (a *Appointment) Resolved() bool {
	return a.Status != nil
}
