package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"flipcart_back_end/internal/cache"
	"flipcart_back_end/internal/config"
	"flipcart_back_end/internal/database"
	"flipcart_back_end/internal/lock"
	"flipcart_back_end/internal/logger"
	"flipcart_back_end/internal/routes"
	"flipcart_back_end/internal/services"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Options{
		Service: "flipcart-api",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})
	if cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conns, err := database.ConnectDatabases(ctx, cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		conns.Close(closeCtx)
	}()

	var (
		locker   lock.Locker = lock.NewLocal()
		notifier cache.CartNotifier
		pc       cache.ProductCache
		indexer  services.Indexer
	)
	if conns.Redis != nil {
		notifier = cache.NewRedisCartNotifier(conns.Redis)
		pc = cache.NewRedisProductCache(conns.Redis, cfg.ProductCacheTTL)
		if cfg.LockDriver == config.LockRedis {
			locker = lock.NewRedis(conns.Redis, cfg.LockTTL)
		}
	} else if cfg.LockDriver == config.LockRedis {
		log.Warn("LOCK_DRIVER=redis without REDIS_HOST, falling back to in-process locks")
	}
	if conns.Elastic != nil {
		indexer = services.NewElasticIndexer(conns.Elastic)
	}

	carts := services.NewCartService(conns.Store, locker, notifier, cfg.StoreTimeout)
	products := services.NewProductService(conns.Store, locker, pc, indexer, cfg.StoreTimeout)

	r := routes.NewRouter(routes.Deps{
		Logger:        log,
		Carts:         carts,
		Products:      products,
		Redis:         conns.Redis,
		Search:        conns.Elastic != nil,
		JWTSecret:     []byte(cfg.JWTSecret),
		CartRateLimit: cfg.CartRateLimit,
		APIRateLimit:  cfg.APIRateLimit,
		CORSOrigins:   cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", "port", cfg.Port, "store", cfg.StoreDriver, "lock", cfg.LockDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
