package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/yourorg/chat-app/realtime/internal/api"
	"github.com/yourorg/chat-app/realtime/internal/config"
	"github.com/yourorg/chat-app/realtime/internal/events"
	"github.com/yourorg/chat-app/realtime/internal/logger"
	"github.com/yourorg/chat-app/realtime/internal/membership"
	"github.com/yourorg/chat-app/realtime/internal/presence"
	"github.com/yourorg/chat-app/realtime/internal/router"
	"github.com/yourorg/chat-app/realtime/internal/store"
	"github.com/yourorg/chat-app/realtime/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	if cfg.App.JWTSecret == "" {
		log.Fatal("app.jwt_secret is required")
	}

	zl, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	mongoClient, err := store.NewMongoClient(cfg)
	if err != nil {
		zl.Fatalw("mongo connect", "err", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
	}()
	st := store.New(mongoClient.Database(cfg.Mongo.Database), zl)

	var mirror presence.Mirror
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Pass,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			zl.Fatalw("redis ping", "err", err)
		}
		cancel()
		defer func() { _ = rdb.Close() }()
		mirror = presence.NewRedisMirror(rdb, cfg.Redis.Prefix, 24*time.Hour)
	}

	var pub *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		pub = events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.TopicMessageCreated, zl)
		defer func() { _ = pub.Close() }()
	}

	hub := ws.NewHub(zl)
	registry := presence.NewRegistry(hub, mirror, zl)
	index := membership.NewIndex(st, cfg.MembershipTTL)
	rtr := router.New(hub, index, zl)
	wsServer := ws.NewServer(hub, registry, cfg, zl)

	srv := api.NewServer(cfg, st, index, rtr, pub, wsServer, zl)

	errs := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		zl.Infow("starting realtime service", "addr", addr, "env", cfg.App.Env)
		errs <- srv.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		zl.Fatalw("server error", "err", err)
	case s := <-sig:
		zl.Infow("signal received", "signal", s.String())
	}

	if err := srv.Shutdown(); err != nil {
		zl.Warnw("server shutdown", "err", err)
	}
	zl.Info("shut down cleanly")
}
