package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medrec/medrec/internal/services"
	appErrors "github.com/medrec/medrec/pkg/errors"
	"github.com/medrec/medrec/pkg/response"
)

// RegistrationHandler exposes patient sign-up and the email verification
// endpoints reached from emailed links.
type RegistrationHandler struct {
	registration *services.RegistrationService
}

func NewRegistrationHandler(registration *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// POST /api/register
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req services.RegistrationInput
	if !bindAndValidate(c, &req) {
		return
	}

	patient, err := h.registration.Register(requestContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"patient": patient,
		"message": "Registration successful. Please check your email to verify your address.",
	})
}

// GET /register/verifyEmail?token=
func (h *RegistrationHandler) VerifyEmail(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.NewBadRequest("token is required"))
		return
	}

	patient, err := h.registration.VerifyEmail(requestContext(c), token)
	if err != nil {
		// An expired link gets a pointer to the resend endpoint so the
		// patient can request a fresh token in one click.
		if errors.Is(err, services.ErrTokenExpired) {
			appErr := appErrors.FromError(err)
			c.JSON(appErr.StatusCode, response.Response{
				Success: false,
				Data:    gin.H{"resend_url": h.registration.ResendURL(token)},
				Error: &response.ErrorInfo{
					Code:    appErr.Code,
					Message: appErr.Message,
				},
			})
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Email verified. You can now log in.",
		"patient": gin.H{"id": patient.ID, "email": patient.Email},
	})
}

// GET /register/resend-verification-token?token=
func (h *RegistrationHandler) ResendVerification(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.NewBadRequest("token is required"))
		return
	}

	if err := h.registration.ResendVerification(requestContext(c), token); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "A new verification link is on its way to your inbox.",
	})
}
