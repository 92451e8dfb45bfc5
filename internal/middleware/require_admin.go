package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin vérifie que l'utilisateur a le rôle "admin". À chaîner après AuthRequired.
func RequireAdmin(c *gin.Context) {
	if c.GetString(CtxRole) != "admin" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Admin access required"})
		return
	}
	c.Next()
}
