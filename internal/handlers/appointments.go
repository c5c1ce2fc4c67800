package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/medrec/medrec/internal/middleware"
	"github.com/medrec/medrec/internal/models"
	"github.com/medrec/medrec/internal/services"
	"github.com/medrec/medrec/pkg/errors"
	"github.com/medrec/medrec/pkg/response"
)

// AppointmentHandler serves the patient-facing booking surface.
type AppointmentHandler struct {
	appointments *services.AppointmentService
}

func NewAppointmentHandler(appointments *services.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

type bookingRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Gender   string `json:"gender"`
	Age      string `json:"age"`
	Date     string `json:"date" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone"`
	Disease  string `json:"disease"`
	DoctorID string `json:"doctor_id" validate:"required"`
	Address  string `json:"address"`
}

func (r bookingRequest) toInput() services.BookingInput {
	return services.BookingInput{
		FullName: r.FullName,
		Gender:   r.Gender,
		Age:      r.Age,
		Date:     r.Date,
		Email:    r.Email,
		Phone:    r.Phone,
		Disease:  r.Disease,
		DoctorID: r.DoctorID,
		Address:  r.Address,
	}
}

// POST /api/appointments
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req bookingRequest
	if !bindAndValidate(c, &req) {
		return
	}

	appointment, err := h.appointments.Book(requestContext(c), middleware.SubjectID(c), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, appointment)
}

// GET /api/appointments
func (h *AppointmentHandler) List(c *gin.Context) {
	appointments, err := h.appointments.ListForPatient(requestContext(c), middleware.SubjectID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, appointments)
}

// GET /api/appointments/:id
func (h *AppointmentHandler) Get(c *gin.Context) {
	appointment, ok := h.ownAppointment(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, appointment)
}

// PUT /api/appointments/:id
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	appointment, ok := h.ownAppointment(c)
	if !ok {
		return
	}

	var req bookingRequest
	if !bindAndValidate(c, &req) {
		return
	}

	updated, err := h.appointments.Reschedule(requestContext(c), appointment.ID, req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

// DELETE /api/appointments/:id
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appointment, ok := h.ownAppointment(c)
	if !ok {
		return
	}

	if err := h.appointments.Cancel(requestContext(c), appointment.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Appointment cancelled"})
}

// ownAppointment loads the path appointment and confirms the caller booked it.
func (h *AppointmentHandler) ownAppointment(c *gin.Context) (*models.Appointment, bool) {
	appointment, err := h.appointments.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	if appointment.PatientID != middleware.SubjectID(c) {
		response.Error(c, errors.ErrForbidden)
		return nil, false
	}
	return appointment, true
}

// DoctorHandler serves the doctor-facing worklist surface.
type DoctorHandler struct {
	appointments *services.AppointmentService
}

func NewDoctorHandler(appointments *services.AppointmentService) *DoctorHandler {
	return &DoctorHandler{appointments: appointments}
}

// GET /api/doctor/appointments
func (h *DoctorHandler) List(c *gin.Context) {
	appointments, err := h.appointments.ListForDoctor(requestContext(c), middleware.SubjectID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, appointments)
}

// GET /api/doctor/appointments/today
func (h *DoctorHandler) Today(c *gin.Context) {
	unsolvedOnly, _ := strconv.ParseBool(c.DefaultQuery("unsolved", "false"))

	appointments, err := h.appointments.TodayForDoctor(requestContext(c), middleware.SubjectID(c), unsolvedOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, appointments)
}

type resolveRequest struct {
	Status  string `json:"status" validate:"required"`
	MedDisc string `json:"med_disc"`
}

// POST /api/doctor/appointments/:id/resolve
func (h *DoctorHandler) Resolve(c *gin.Context) {
	appointment, err := h.appointments.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	// Only the assigned doctor may record the outcome.
	if appointment.DoctorID != middleware.SubjectID(c) {
		response.Error(c, errors.ErrForbidden)
		return
	}

	var req resolveRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resolved, err := h.appointments.Resolve(requestContext(c), appointment.ID, req.Status, req.MedDisc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resolved)
}

// GET /api/doctor/dashboard
func (h *DoctorHandler) Dashboard(c *gin.Context) {
	dash, err := h.appointments.Dashboard(requestContext(c), middleware.SubjectID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dash)
}
