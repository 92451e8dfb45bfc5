package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"flipcart_back_end/internal/models"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisProductCache_RoundTrip(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisProductCache(client, time.Minute)
	ctx := context.Background()

	rating := 4.5
	p := models.Product{ID: primitive.NewObjectID(), Name: "Phone", Price: 199, Rating: &rating}
	id := p.ID.Hex()

	if _, ok := c.Get(ctx, id); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set(ctx, p)
	if ttl := mr.TTL("product:" + id); ttl != time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	got, ok := c.Get(ctx, id)
	if !ok || got.Name != "Phone" || got.Rating == nil || *got.Rating != 4.5 {
		t.Fatalf("unexpected cached product: %+v ok=%v", got, ok)
	}

	c.Invalidate(ctx, id)
	if _, ok := c.Get(ctx, id); ok {
		t.Fatal("expected miss after invalidate")
	}
}

func TestRedisProductCache_CorruptEntryIsDropped(t *testing.T) {
	mr, client := newRedis(t)
	c := NewRedisProductCache(client, 0)
	mr.Set("product:abc", "{not json")

	if _, ok := c.Get(context.Background(), "abc"); ok {
		t.Fatal("corrupt entry should be a miss")
	}
	if mr.Exists("product:abc") {
		t.Fatal("corrupt entry should be deleted")
	}
}

func TestRedisCartNotifier_Publish(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()

	sub := SubscribeCart(ctx, client, "u1")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil { // confirmation d'abonnement
		t.Fatal(err)
	}

	NewRedisCartNotifier(client).Publish(ctx, "u1", CartEventUpdated)

	select {
	case msg := <-sub.Channel():
		if msg.Channel != "cart:u1" || msg.Payload != CartEventUpdated {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestRateCounter(t *testing.T) {
	mr, client := newRedis(t)
	rc := NewRateCounter(client)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		n, err := rc.Increment(ctx, "k", time.Minute)
		if err != nil || n != i {
			t.Fatalf("increment %d: n=%d err=%v", i, n, err)
		}
	}
	if cur, _ := mr.Get("k"); cur != "3" {
		t.Fatalf("counter = %q", cur)
	}
	if rc.TTL(ctx, "k") <= 0 {
		t.Fatal("window ttl not set")
	}

	mr.FastForward(time.Minute + time.Second)
	if mr.Exists("k") {
		t.Fatal("window should have expired")
	}
}
