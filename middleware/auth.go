package middleware

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"knowledge-base/helper"
	"knowledge-base/models"
	"knowledge-base/services"
)

var HTTPHelper = &helper.HTTPHelper{}

// Authenticate resolves the bearer credential and stores the caller on the
// request context. Missing or invalid credentials leave the caller
// unauthenticated; only an identity provider failure aborts the request.
func Authenticate(identity services.IdentityService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))

		caller, err := identity.Resolve(c.Request.Context(), token)
		if err != nil {
			logger.ErrorContext(c.Request.Context(), "identity resolution failed", "error", err)
			HTTPHelper.SendAPIError(c, err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(models.ContextWithIdentity(c.Request.Context(), caller))
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value, or
// returns "" when the header is not a bearer credential.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
