package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by the API key middleware.
const (
	ContextTenantIDKey = "webhookTenantID"
	ContextKeyIDKey    = "webhookKeyID"
)

// APIKeyAuthMiddleware validates the X-Webhook-API-Key header
// and sets the tenant context on the gin context.
func APIKeyAuthMiddleware(repo *Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-Webhook-API-Key")
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		key, err := repo.GetByHash(c.Request.Context(), HashKey(apiKey))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Set(ContextTenantIDKey, key.TenantID)
		c.Set(ContextKeyIDKey, key.ID)
		c.Next()
	}
}
