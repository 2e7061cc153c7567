package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminAuth guards operator routes with the Admin-Key header. With no key
// configured the routes are closed.
func (h *Handler) AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Admin-Key")
		if h.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.adminKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized access"})
			return
		}
		c.Next()
	}
}
