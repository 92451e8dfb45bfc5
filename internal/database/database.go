package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	"flipcart_back_end/internal/config"
)

// Connections regroupe les clients ouverts au démarrage.
// Redis et Elastic sont nil quand ils ne sont pas configurés.
type Connections struct {
	Store   Store
	Redis   *redis.Client
	Elastic *elasticsearch.Client
}

// ConnectDatabases ouvre le store, puis Redis et Elasticsearch si configurés.
func ConnectDatabases(ctx context.Context, cfg config.Config) (*Connections, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conns := &Connections{}

	// 1. Store documents
	switch cfg.StoreDriver {
	case config.StoreMemory:
		conns.Store = NewMemoryStore()
		slog.Warn("using in-memory store, data is lost on restart")
	default:
		s, err := ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		conns.Store = s
	}

	// 2. Redis
	if cfg.RedisHost != "" {
		rdb, err := connectRedis(ctx, cfg.RedisHost, cfg.RedisPassword)
		if err != nil {
			conns.Close(context.Background())
			return nil, err
		}
		conns.Redis = rdb
	}

	// 3. Elasticsearch
	if cfg.ElasticURL != "" {
		es, err := connectElastic(cfg.ElasticURL, cfg.ElasticUser, cfg.ElasticPassword)
		if err != nil {
			conns.Close(context.Background())
			return nil, err
		}
		conns.Elastic = es
	}

	return conns, nil
}

// Close ferme tout ce qui a été ouvert.
func (c *Connections) Close(ctx context.Context) {
	if c.Store != nil {
		if err := c.Store.Close(ctx); err != nil {
			slog.Error("store close", "error", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			slog.Error("redis close", "error", err)
		}
	}
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	slog.Info("redis connected", "addr", addr)
	return rdb, nil
}

// =============================================
// ELASTICSEARCH
// =============================================
func connectElastic(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elastic client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elastic info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elastic info: %s", res.Status())
	}

	slog.Info("elasticsearch connected", "url", url)
	return client, nil
}
