package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"flipcart_back_end/internal/cache"
)

const rateWindow = time.Minute

// RateLimit limite à limit requêtes par minute et par clé (fenêtre fixe Redis).
// Une panne Redis laisse passer la requête.
func RateLimit(counter *cache.RateCounter, prefix string, limit int, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if counter == nil || limit <= 0 {
			c.Next()
			return
		}

		key := prefix + ":" + keyFn(c)
		n, err := counter.Increment(c.Request.Context(), key, rateWindow)
		if err != nil {
			slog.Warn("rate limit unavailable", "key", key, "error", err)
			c.Next()
			return
		}

		remaining := int64(limit) - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if n > int64(limit) {
			retry := counter.TTL(c.Request.Context(), key)
			if retry <= 0 {
				retry = rateWindow
			}
			c.Header("Retry-After", fmt.Sprintf("%.0f", retry.Seconds()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"message":     "Too many requests, slow down",
				"retry_after": int(retry.Seconds()),
			})
			return
		}
		c.Next()
	}
}

// APIRateLimit limite les requêtes générales par IP.
func APIRateLimit(counter *cache.RateCounter, limit int) gin.HandlerFunc {
	return RateLimit(counter, "api_requests", limit, func(c *gin.Context) string { return c.ClientIP() })
}

// CartRateLimit limite les ajouts au panier (anti-spam), par utilisateur
// authentifié sinon par IP.
func CartRateLimit(counter *cache.RateCounter, limit int) gin.HandlerFunc {
	return RateLimit(counter, "cart_add", limit, func(c *gin.Context) string {
		if id := c.GetString(CtxUserID); id != "" {
			return id
		}
		return c.ClientIP()
	})
}
