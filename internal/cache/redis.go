package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCounter compte des requêtes par fenêtre fixe.
type RateCounter struct {
	client *redis.Client
}

func NewRateCounter(client *redis.Client) *RateCounter {
	return &RateCounter{client: client}
}

// Increment incrémente key; le TTL n'est posé qu'à la création de la fenêtre.
func (r *RateCounter) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// TTL retourne le temps restant de la fenêtre (0 si inconnue).
func (r *RateCounter) TTL(ctx context.Context, key string) time.Duration {
	d, err := r.client.TTL(ctx, key).Result()
	if err != nil || d < 0 {
		return 0
	}
	return d
}
