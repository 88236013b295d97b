package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vkivaturi/traffis/internal/errs"
)

// RequireAPIKey guards mutating routes with the shared secret. The
// caller may send it in the x-api-key header or the api_key query
// parameter. An unconfigured secret fails closed.
func RequireAPIKey(configuredKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if configuredKey == "" {
			authErr := &errs.AuthError{Kind: errs.AuthUnconfigured}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": authErr.Error()})
			return
		}

		apiKey := c.GetHeader("x-api-key")
		if apiKey == "" {
			apiKey = c.Query("api_key")
		}

		if apiKey == "" {
			authErr := &errs.AuthError{Kind: errs.AuthMissing}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authErr.Error()})
			return
		}

		if apiKey != configuredKey {
			authErr := &errs.AuthError{Kind: errs.AuthMismatch}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": authErr.Error()})
			return
		}

		c.Next()
	}
}
