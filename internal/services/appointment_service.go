package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/medrec/medrec/internal/models"
	apperrors "github.com/medrec/medrec/pkg/errors"
	"github.com/medrec/medrec/pkg/metrics"
)

// BookingInput carries the contact fields captured at booking time plus the
// selected doctor and date. The doctor id travels as its own field; no
// display-string parsing happens here.
type BookingInput struct {
	FullName string
	Gender   string
	Age      string
	Date     string
	Email    string
	Phone    string
	Disease  string
	DoctorID string
	Address  string
}

// DoctorDashboard aggregates the counters shown on a doctor's landing page.
type DoctorDashboard struct {
	Total         int64 `json:"total"`
	Today         int64 `json:"today"`
	TodayUnsolved int64 `json:"today_unsolved"`
}

// AppointmentOption customises the AppointmentService.
type AppointmentOption func(*AppointmentService)

// WithAppointmentClock injects a custom time source.
func WithAppointmentClock(clock func() time.Time) AppointmentOption {
	return func(s *AppointmentService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithAppointmentLocation sets the time zone used for "today" comparisons.
func WithAppointmentLocation(loc *time.Location) AppointmentOption {
	return func(s *AppointmentService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// AppointmentService owns the booking lifecycle: creation in the unresolved
// state, clinical resolution by a doctor, rescheduling, cancellation, and
// the dashboard views derived from those states.
type AppointmentService struct {
	db  *gorm.DB
	now func() time.Time
	loc *time.Location
}

// NewAppointmentService constructs an AppointmentService.
func NewAppointmentService(db *gorm.DB, opts ...AppointmentOption) (*AppointmentService, error) {
	if db == nil {
		return nil, errors.New("appointment service: db is required")
	}

	service := &AppointmentService{
		db:  db,
		now: time.Now,
		loc: time.Local,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Book creates an appointment in the unresolved state after confirming the
// target doctor exists.
func (s *AppointmentService) Book(ctx context.Context, patientID string, input BookingInput) (*models.Appointment, error) {
	if err := s.checkBookingInput(ctx, input); err != nil {
		return nil, err
	}

	appointment := &models.Appointment{
		PatientID: strings.TrimSpace(patientID),
		FullName:  strings.TrimSpace(input.FullName),
		Gender:    input.Gender,
		Age:       input.Age,
		Date:      input.Date,
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:     input.Phone,
		Disease:   input.Disease,
		DoctorID:  input.DoctorID,
		Address:   input.Address,
	}

	if appointment.PatientID == "" {
		return nil, apperrors.NewBadRequest("patient id is required")
	}

	if err := s.db.WithContext(ctx).Create(appointment).Error; err != nil {
		return nil, fmt.Errorf("appointment service: book: %w", err)
	}

	metrics.AppointmentsBooked.Inc()
	return appointment, nil
}

// Resolve records the clinical outcome: status and notes always move
// together, and the transition is a terminal overwrite that may repeat.
func (s *AppointmentService) Resolve(ctx context.Context, id, status, medDisc string) (*models.Appointment, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, apperrors.ErrPreconditionFailed.WithMessage("a resolution status is required")
	}

	appointment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(appointment).Updates(map[string]any{
		"status":   status,
		"med_disc": medDisc,
	}).Error; err != nil {
		return nil, fmt.Errorf("appointment service: resolve: %w", err)
	}

	appointment.Status = &status
	appointment.MedDisc = medDisc
	metrics.AppointmentsResolved.Inc()
	return appointment, nil
}

// Reschedule overwrites the booking fields of a pending appointment. A
// resolved appointment keeps its record as written; clinical notes never
// silently migrate onto new logistics.
func (s *AppointmentService) Reschedule(ctx context.Context, id string, input BookingInput) (*models.Appointment, error) {
	appointment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Resolved() {
		return nil, ErrAppointmentResolved
	}

	if err := s.checkBookingInput(ctx, input); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"full_name": strings.TrimSpace(input.FullName),
		"gender":    input.Gender,
		"age":       input.Age,
		"date":      input.Date,
		"email":     strings.ToLower(strings.TrimSpace(input.Email)),
		"phone":     input.Phone,
		"disease":   input.Disease,
		"doctor_id": input.DoctorID,
		"address":   input.Address,
	}
	if err := s.db.WithContext(ctx).Model(appointment).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("appointment service: reschedule: %w", err)
	}

	return s.Get(ctx, id)
}

// Cancel deletes the appointment if present.
func (s *AppointmentService) Cancel(ctx context.Context, id string) error {
	appointment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(appointment).Error; err != nil {
		return fmt.Errorf("appointment service: cancel: %w", err)
	}
	return nil
}

// Get loads one appointment by id.
func (s *AppointmentService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrAppointmentNotFound
	}

	var appointment models.Appointment
	if err := s.db.WithContext(ctx).First(&appointment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("appointment service: get: %w", err)
	}
	return &appointment, nil
}

// ListForPatient returns a patient's appointments, newest date first,
// decorated with doctor names.
func (s *AppointmentService) ListForPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	if err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("date DESC").
		Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("appointment service: list for patient: %w", err)
	}
	return s.decorate(ctx, appointments)
}

// ListForDoctor returns every appointment assigned to one doctor.
func (s *AppointmentService) ListForDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	if err := s.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("date DESC").
		Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("appointment service: list for doctor: %w", err)
	}
	return s.decorate(ctx, appointments)
}

// ListAll returns every appointment, decorated with doctor names.
func (s *AppointmentService) ListAll(ctx context.Context) ([]models.Appointment, error) {
	var appointments []models.Appointment
	if err := s.db.WithContext(ctx).Order("date DESC").Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("appointment service: list all: %w", err)
	}
	return s.decorate(ctx, appointments)
}

// TodayForDoctor returns the doctor's appointments whose date equals the
// current calendar date in the service's location. When unsolvedOnly is
// set, resolved appointments are excluded.
func (s *AppointmentService) TodayForDoctor(ctx context.Context, doctorID string, unsolvedOnly bool) ([]models.Appointment, error) {
	query := s.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ?", doctorID, s.today())
	if unsolvedOnly {
		query = query.Where("status IS NULL")
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("appointment service: today for doctor: %w", err)
	}
	return s.decorate(ctx, appointments)
}

// Dashboard computes a doctor's appointment counters.
func (s *AppointmentService) Dashboard(ctx context.Context, doctorID string) (*DoctorDashboard, error) {
	var dash DoctorDashboard
	base := s.db.WithContext(ctx).Model(&models.Appointment{}).Where("doctor_id = ?", doctorID)

	if err := base.Session(&gorm.Session{}).Count(&dash.Total).Error; err != nil {
		return nil, fmt.Errorf("appointment service: dashboard total: %w", err)
	}

	today := s.today()
	if err := base.Session(&gorm.Session{}).
		Where("date = ?", today).
		Count(&dash.Today).Error; err != nil {
		return nil, fmt.Errorf("appointment service: dashboard today: %w", err)
	}

	if err := base.Session(&gorm.Session{}).
		Where("date = ? AND status IS NULL", today).
		Count(&dash.TodayUnsolved).Error; err != nil {
		return nil, fmt.Errorf("appointment service: dashboard unsolved: %w", err)
	}

	return &dash, nil
}

// Count returns the number of appointments in the system.
func (s *AppointmentService) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Appointment{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("appointment service: count: %w", err)
	}
	return count, nil
}

func (s *AppointmentService) today() string {
	return s.now().In(s.loc).Format(models.DateLayout)
}

func (s *AppointmentService) checkBookingInput(ctx context.Context, input BookingInput) error {
	if strings.TrimSpace(input.FullName) == "" {
		return apperrors.NewBadRequest("full name is required")
	}
	if _, err := time.ParseInLocation(models.DateLayout, input.Date, s.loc); err != nil {
		return apperrors.NewBadRequest("date must use the YYYY-MM-DD format")
	}

	doctorID := strings.TrimSpace(input.DoctorID)
	if doctorID == "" {
		return apperrors.NewBadRequest("doctor id is required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Doctor{}).
		Where("id = ?", doctorID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("appointment service: check doctor: %w", err)
	}
	if count == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (s *AppointmentService) decorate(ctx context.Context, appointments []models.Appointment) ([]models.Appointment, error) {
	if len(appointments) == 0 {
		return appointments, nil
	}

	ids := make([]string, 0, len(appointments))
	seen := make(map[string]struct{}, len(appointments))
	for _, appointment := range appointments {
		if _, ok := seen[appointment.DoctorID]; ok {
			continue
		}
		seen[appointment.DoctorID] = struct{}{}
		ids = append(ids, appointment.DoctorID)
	}

	var doctors []models.Doctor
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("appointment service: decorate: %w", err)
	}

	names := make(map[string]string, len(doctors))
	for _, doctor := range doctors {
		names[doctor.ID] = doctor.FullName
	}
	for i := range appointments {
		appointments[i].DoctorName = names[appointments[i].DoctorID]
	}

	return appointments, nil
}
