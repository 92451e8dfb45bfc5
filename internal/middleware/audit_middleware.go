package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
)

// Actions auditées sur le catalogue.
const (
	ActionProductCreate      = "product.create"
	ActionProductUpdate      = "product.update"
	ActionProductDelete      = "product.delete"
	ActionProductPriceChange = "product.price_change"
	ActionCartDelete         = "cart.delete"
)

// AuditCriticalActions logge les actions d'administration qui ont réussi (2xx).
// Un changement de prix dans le body est audité à part.
func AuditCriticalActions(log *slog.Logger, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var newPrice any
		if c.Request.Body != nil && (c.Request.Method == "POST" || c.Request.Method == "PUT") {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err == nil {
				// Restaurer le body pour les handlers suivants
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				var requestData map[string]any
				if json.Unmarshal(bodyBytes, &requestData) == nil {
					newPrice = requestData["price"]
				}
			}
		}

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		attrs := []any{
			"action", action,
			"resource_id", c.Param("id"),
			"user_id", c.GetString(CtxUserID),
			"ip", c.ClientIP(),
			"user_agent", c.GetHeader("User-Agent"),
			"request_id", c.GetString("request_id"),
		}
		log.Info("audit", attrs...)

		if newPrice != nil && action == ActionProductUpdate {
			log.Info("audit", "action", ActionProductPriceChange, "resource_id", c.Param("id"),
				"user_id", c.GetString(CtxUserID), "new_price", newPrice)
		}
	}
}
