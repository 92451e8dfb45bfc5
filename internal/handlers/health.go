package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	redis  *redis.Client
	search bool
}

func NewHealthHandler(client *redis.Client, search bool) *HealthHandler {
	return &HealthHandler{redis: client, search: search}
}

// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	redisState := "disabled"
	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		redisState = "up"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			redisState = "down"
		}
	}

	searchState := "disabled"
	if h.search {
		searchState = "enabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"redis":  redisState,
		"search": searchState,
	})
}
