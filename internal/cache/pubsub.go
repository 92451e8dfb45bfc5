package cache

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const (
	CartEventUpdated = "updated"
	CartEventCleared = "cleared"
	CartEventDeleted = "deleted"
)

// CartNotifier diffuse les changements de panier (sync temps réel web/app).
type CartNotifier interface {
	Publish(ctx context.Context, userID, event string)
}

type NopCartNotifier struct{}

func (NopCartNotifier) Publish(context.Context, string, string) {}

// CartChannel est le canal pub/sub d'un utilisateur.
func CartChannel(userID string) string { return "cart:" + userID }

type RedisCartNotifier struct {
	client *redis.Client
}

func NewRedisCartNotifier(client *redis.Client) *RedisCartNotifier {
	return &RedisCartNotifier{client: client}
}

func (n *RedisCartNotifier) Publish(ctx context.Context, userID, event string) {
	if err := n.client.Publish(ctx, CartChannel(userID), event).Err(); err != nil {
		slog.Warn("cart event publish", "user_id", userID, "event", event, "error", err)
	}
}

// SubscribeCart s'abonne au canal d'un utilisateur. L'appelant ferme le PubSub.
func SubscribeCart(ctx context.Context, client *redis.Client, userID string) *redis.PubSub {
	return client.Subscribe(ctx, CartChannel(userID))
}
