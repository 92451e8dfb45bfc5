package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"flipcart_back_end/internal/models"
)

const ProductCacheTTL = 10 * time.Minute

// ProductCache est un cache-aside des fiches produit.
type ProductCache interface {
	Get(ctx context.Context, id string) (models.Product, bool)
	Set(ctx context.Context, p models.Product)
	Invalidate(ctx context.Context, id string)
}

// NopProductCache ne met rien en cache (Redis désactivé).
type NopProductCache struct{}

func (NopProductCache) Get(context.Context, string) (models.Product, bool) {
	return models.Product{}, false
}
func (NopProductCache) Set(context.Context, models.Product) {}
func (NopProductCache) Invalidate(context.Context, string)  {}

// RedisProductCache stocke les produits en JSON sous product:<id>.
// Les erreurs Redis sont loggées: un cache en panne ne casse pas la lecture.
type RedisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration) *RedisProductCache {
	if ttl <= 0 {
		ttl = ProductCacheTTL
	}
	return &RedisProductCache{client: client, ttl: ttl}
}

func productKey(id string) string { return "product:" + id }

func (c *RedisProductCache) Get(ctx context.Context, id string) (models.Product, bool) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("product cache get", "product_id", id, "error", err)
		}
		return models.Product{}, false
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("product cache decode", "product_id", id, "error", err)
		c.Invalidate(ctx, id)
		return models.Product{}, false
	}
	return p, true
}

func (c *RedisProductCache) Set(ctx context.Context, p models.Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, productKey(p.ID.Hex()), data, c.ttl).Err(); err != nil {
		slog.Warn("product cache set", "product_id", p.ID.Hex(), "error", err)
	}
}

func (c *RedisProductCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, productKey(id)).Err(); err != nil {
		slog.Warn("product cache invalidate", "product_id", id, "error", err)
	}
}
