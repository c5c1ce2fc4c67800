package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/medrec/medrec/internal/auth"
	"github.com/medrec/medrec/internal/middleware"
	"github.com/medrec/medrec/pkg/errors"
	"github.com/medrec/medrec/pkg/metrics"
	"github.com/medrec/medrec/pkg/response"
)

// AuthHandler manages the login flow for all three actor roles.
type AuthHandler struct {
	auth *iauth.AuthService
}

func NewAuthHandler(auth *iauth.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=patient doctor admin"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	principal, token, err := h.auth.Login(requestContext(c), strings.TrimSpace(req.Email), req.Password, req.Role)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues(req.Role, "failure").Inc()
		response.Error(c, err)
		return
	}

	metrics.AuthAttempts.WithLabelValues(req.Role, "success").Inc()

	response.Success(c, http.StatusOK, gin.H{
		"tokens": tokenResponse{AccessToken: token},
		"user": gin.H{
			"id":        principal.ID,
			"full_name": principal.FullName,
			"email":     principal.Email,
			"role":      principal.Role,
		},
	})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := c.Get(middleware.CtxClaimsKey)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}
	token, ok := claims.(*iauth.Claims)
	if !ok {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":   token.Subject,
		"role": token.Role,
	})
}
