package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/medrec/medrec/internal/auth"
	"github.com/medrec/medrec/pkg/errors"
	"github.com/medrec/medrec/pkg/response"
)

const (
	CtxClaimsKey    = "authClaims"
	CtxSubjectIDKey = "subjectID"
	CtxRoleKey      = "subjectRole"
)

// Auth enforces JWT authentication using the supplied JWT service.
func Auth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		token := strings.TrimSpace(authz[7:])
		claims, err := jwt.ValidateAccessToken(token)
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		// Propagate identity into request context
		c.Set(CtxClaimsKey, claims)
		c.Set(CtxSubjectIDKey, claims.Subject)
		c.Set(CtxRoleKey, claims.Role)

		c.Next()
	}
}

// RequireRole allows the request through only when the authenticated
// subject carries one of the given roles. It must run after Auth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRoleKey)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		response.Error(c, errors.ErrForbidden)
		c.Abort()
	}
}

// SubjectID returns the authenticated subject id set by Auth.
func SubjectID(c *gin.Context) string {
	return c.GetString(CtxSubjectIDKey)
}
