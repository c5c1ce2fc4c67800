package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medrec/medrec/internal/services"
	appErrors "github.com/medrec/medrec/pkg/errors"
	"github.com/medrec/medrec/pkg/response"
)

// AdminHandler serves the administrative surface: the doctor directory,
// the specialty catalogue and oversight listings.
type AdminHandler struct {
	directory    *services.DirectoryService
	appointments *services.AppointmentService
	settlements  *services.SettlementService
}

func NewAdminHandler(directory *services.DirectoryService, appointments *services.AppointmentService, settlements *services.SettlementService) *AdminHandler {
	return &AdminHandler{
		directory:    directory,
		appointments: appointments,
		settlements:  settlements,
	}
}

// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	dash, err := h.directory.Dashboard(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dash)
}

// POST /api/admin/doctors
func (h *AdminHandler) CreateDoctor(c *gin.Context) {
	var req services.DoctorInput
	if !bindAndValidate(c, &req) {
		return
	}

	doctor, err := h.directory.CreateDoctor(requestContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, doctor)
}

// PUT /api/admin/doctors/:id
func (h *AdminHandler) UpdateDoctor(c *gin.Context) {
	var req services.DoctorInput
	if !bindAndValidate(c, &req) {
		return
	}

	doctor, err := h.directory.UpdateDoctor(requestContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, doctor)
}

// GET /api/admin/doctors/:id
func (h *AdminHandler) GetDoctor(c *gin.Context) {
	doctor, err := h.directory.GetDoctor(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, doctor)
}

// DELETE /api/admin/doctors/:id
func (h *AdminHandler) DeleteDoctor(c *gin.Context) {
	if err := h.directory.DeleteDoctor(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Doctor removed"})
}

// GET /api/admin/patients
func (h *AdminHandler) ListPatients(c *gin.Context) {
	patients, err := h.directory.ListPatients(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, patients)
}

// GET /api/admin/appointments
func (h *AdminHandler) ListAppointments(c *gin.Context) {
	appointments, err := h.appointments.ListAll(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, appointments)
}

// GET /api/admin/transactions
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	transactions, err := h.settlements.ListAll(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, transactions)
}

type specialtyRequest struct {
	Name string `json:"name" validate:"required"`
}

// POST /api/admin/specialties
func (h *AdminHandler) CreateSpecialty(c *gin.Context) {
	var req specialtyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		response.Error(c, appErrors.NewBadRequest("name is required"))
		return
	}

	specialty, err := h.directory.CreateSpecialty(requestContext(c), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, specialty)
}

// DirectoryHandler serves the public doctor directory used on booking forms.
type DirectoryHandler struct {
	directory *services.DirectoryService
}

func NewDirectoryHandler(directory *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// GET /api/doctors
func (h *DirectoryHandler) ListDoctors(c *gin.Context) {
	doctors, err := h.directory.ListDoctors(requestContext(c), c.Query("specialty"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, doctors)
}

// GET /api/specialties
func (h *DirectoryHandler) ListSpecialties(c *gin.Context) {
	specialties, err := h.directory.ListSpecialties(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, specialties)
}
