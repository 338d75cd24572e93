package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"freightportal/internal/config"
	"freightportal/internal/db"
	"freightportal/internal/geo"
	"freightportal/internal/logging"
	"freightportal/internal/rate"
	"freightportal/internal/ratelimit"
	"freightportal/internal/server"
	"freightportal/internal/store"
	"freightportal/internal/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.Postgres.URL)
	if err != nil {
		logger.Fatalw("failed to connect db", "error", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatalw("database ping failed", "error", err)
	}

	table, err := rate.LoadTable(cfg.Rates.TablePath)
	if err != nil {
		logger.Fatalw("failed to load rate table", "error", err)
	}

	resolver := geo.NewResolver(logger)
	engine := rate.NewEngine(resolver, logger)
	shopper := rate.NewShopper(table, resolver, logger)

	adapters := make([]tracking.Adapter, 0, len(cfg.Carriers))
	secrets := make(map[string]string, len(cfg.Carriers))
	for _, c := range cfg.Carriers {
		adapters = append(adapters, tracking.NewHTTPAdapter(c.Code, c.BaseURL, c.APIKey))
		if c.WebhookSecret != "" {
			secrets[c.Code] = c.WebhookSecret
		}
	}
	if len(adapters) == 0 {
		logger.Warnw("no carriers configured; tracking lookups will always miss")
	}

	st := store.New(pool)
	aggregator := tracking.NewAggregator(adapters, st, st, st, logger, tracking.Options{
		AdapterTimeout: time.Duration(cfg.Tracking.AdapterTimeoutMS) * time.Millisecond,
		BulkWorkers:    cfg.Tracking.BulkWorkers,
	})

	var limiter ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatalw("redis ping failed", "error", err)
		}
		defer rdb.Close()
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimit.PerMinute)
	} else {
		limiter = ratelimit.NewMemory(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	}

	handler := server.New(server.Options{
		Engine:         engine,
		Shopper:        shopper,
		Tracker:        aggregator,
		Limiter:        limiter,
		WebhookSecrets: secrets,
		Log:            logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Infow("api listening", "port", cfg.HTTP.Port, "carriers", len(adapters))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorw("server error", "error", err)
			stop <- syscall.SIGTERM
		}
	}()

	<-stop
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("shutdown error", "error", err)
	}
}
