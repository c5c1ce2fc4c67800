package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/medrec/medrec/internal/models"
	"github.com/medrec/medrec/pkg/crypto"
	apperrors "github.com/medrec/medrec/pkg/errors"
	"github.com/medrec/medrec/pkg/logger"
)

// DoctorInput carries the admin-entered profile for a doctor account.
type DoctorInput struct {
	FullName      string `json:"full_name" validate:"required"`
	DOB           string `json:"dob"`
	Qualification string `json:"qualification"`
	Specialty     string `json:"specialty" validate:"required"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone"`
	Password      string `json:"password"`
	ImageURL      string `json:"image_url"`
}

// AdminDashboard aggregates the counters shown on the admin landing page.
type AdminDashboard struct {
	Doctors      int64 `json:"doctors"`
	Patients     int64 `json:"patients"`
	Appointments int64 `json:"appointments"`
	Specialties  int64 `json:"specialties"`
	Transactions int64 `json:"transactions"`
}

// DirectoryService manages the doctor directory, the specialty catalogue
// and the admin-facing listings built on top of them.
type DirectoryService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(db *gorm.DB) (*DirectoryService, error) {
	if db == nil {
		return nil, errors.New("directory service: db is required")
	}
	return &DirectoryService{db: db, log: logger.WithModule("directory")}, nil
}

// CreateDoctor registers a doctor account. The password is hashed before it
// is stored.
func (s *DirectoryService) CreateDoctor(ctx context.Context, input DoctorInput) (*models.Doctor, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Doctor{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("directory service: check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	if input.Password == "" {
		return nil, apperrors.NewBadRequest("password is required")
	}
	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("directory service: hash password: %w", err)
	}

	doctor := &models.Doctor{
		FullName:      strings.TrimSpace(input.FullName),
		DOB:           input.DOB,
		Qualification: input.Qualification,
		Specialty:     input.Specialty,
		Email:         email,
		Phone:         input.Phone,
		Password:      hashed,
		ImageURL:      input.ImageURL,
	}
	if err := s.db.WithContext(ctx).Create(doctor).Error; err != nil {
		return nil, fmt.Errorf("directory service: create doctor: %w", err)
	}

	s.log.Info("doctor created", zap.String("doctor_id", doctor.ID))
	return doctor, nil
}

// UpdateDoctor overwrites a doctor's profile fields. An empty password
// leaves the stored credential untouched.
func (s *DirectoryService) UpdateDoctor(ctx context.Context, id string, input DoctorInput) (*models.Doctor, error) {
	doctor, err := s.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"full_name":     strings.TrimSpace(input.FullName),
		"dob":           input.DOB,
		"qualification": input.Qualification,
		"specialty":     input.Specialty,
		"email":         strings.ToLower(strings.TrimSpace(input.Email)),
		"phone":         input.Phone,
		"image_url":     input.ImageURL,
	}
	if input.Password != "" {
		hashed, err := crypto.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("directory service: hash password: %w", err)
		}
		updates["password"] = hashed
	}

	if err := s.db.WithContext(ctx).Model(doctor).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("directory service: update doctor: %w", err)
	}
	return s.GetDoctor(ctx, id)
}

// DeleteDoctor removes a doctor from the directory.
func (s *DirectoryService) DeleteDoctor(ctx context.Context, id string) error {
	doctor, err := s.GetDoctor(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(doctor).Error; err != nil {
		return fmt.Errorf("directory service: delete doctor: %w", err)
	}
	return nil
}

// GetDoctor loads one doctor by id.
func (s *DirectoryService) GetDoctor(ctx context.Context, id string) (*models.Doctor, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrDoctorNotFound
	}

	var doctor models.Doctor
	if err := s.db.WithContext(ctx).First(&doctor, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("directory service: get doctor: %w", err)
	}
	return &doctor, nil
}

// ListDoctors returns doctors, optionally filtered by specialty.
func (s *DirectoryService) ListDoctors(ctx context.Context, specialty string) ([]models.Doctor, error) {
	query := s.db.WithContext(ctx).Order("full_name ASC")
	if specialty = strings.TrimSpace(specialty); specialty != "" {
		query = query.Where("specialty = ?", specialty)
	}

	var doctors []models.Doctor
	if err := query.Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("directory service: list doctors: %w", err)
	}
	return doctors, nil
}

// CreateSpecialty adds a specialty tag to the catalogue.
func (s *DirectoryService) CreateSpecialty(ctx context.Context, name string) (*models.Specialty, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewBadRequest("specialty name is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Specialty{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("directory service: check specialty: %w", err)
	}
	if count > 0 {
		return nil, ErrSpecialtyExists
	}

	specialty := &models.Specialty{Name: name}
	if err := s.db.WithContext(ctx).Create(specialty).Error; err != nil {
		return nil, fmt.Errorf("directory service: create specialty: %w", err)
	}
	return specialty, nil
}

// ListSpecialties returns the specialty catalogue sorted by name.
func (s *DirectoryService) ListSpecialties(ctx context.Context) ([]models.Specialty, error) {
	var specialties []models.Specialty
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&specialties).Error; err != nil {
		return nil, fmt.Errorf("directory service: list specialties: %w", err)
	}
	return specialties, nil
}

// ListPatients returns every patient account, newest first.
func (s *DirectoryService) ListPatients(ctx context.Context) ([]models.Patient, error) {
	var patients []models.Patient
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("directory service: list patients: %w", err)
	}
	return patients, nil
}

// GetPatient loads one patient by id.
func (s *DirectoryService) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrPatientNotFound
	}

	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("directory service: get patient: %w", err)
	}
	return &patient, nil
}

// Dashboard computes the admin landing-page counters.
func (s *DirectoryService) Dashboard(ctx context.Context) (*AdminDashboard, error) {
	var dash AdminDashboard
	counts := []struct {
		model any
		dest  *int64
	}{
		{&models.Doctor{}, &dash.Doctors},
		{&models.Patient{}, &dash.Patients},
		{&models.Appointment{}, &dash.Appointments},
		{&models.Specialty{}, &dash.Specialties},
		{&models.Transaction{}, &dash.Transactions},
	}
	for _, c := range counts {
		if err := s.db.WithContext(ctx).Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("directory service: dashboard: %w", err)
		}
	}
	return &dash, nil
}
