package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/simplur/cart-events-service/internal/broadcast"
	"github.com/simplur/cart-events-service/internal/config"
	"github.com/simplur/cart-events-service/internal/engine"
	"github.com/simplur/cart-events-service/internal/history"
	cartshttp "github.com/simplur/cart-events-service/internal/http"
	"github.com/simplur/cart-events-service/internal/publisher"
	"github.com/simplur/cart-events-service/internal/store"
	"github.com/simplur/cart-events-service/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Connected to Redis at %s", cfg.RedisAddr)

	sessionStore := store.NewRedisStore(redisClient)
	wooClient := upstream.NewWooClient(cfg.UpstreamURL, cfg.UpstreamTimeout)
	log.Printf("Upstream commerce endpoint: %s", cfg.UpstreamURL)

	broadcaster := broadcast.NewBroadcaster()

	// Outcome events always reach the live broadcast; the Kafka audit
	// sink is attached only when brokers are configured.
	var events engine.EventPublisher = broadcaster
	if len(cfg.KafkaBrokers) > 0 {
		sink := publisher.NewKafkaSink(cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer sink.Close()
		events = publisher.NewFanout(broadcaster, sink)
		log.Printf("Kafka audit sink enabled on topic %s", cfg.KafkaTopic)
	}

	var recorder engine.ActionRecorder
	if cfg.HistoryEnabled {
		recorder = history.NewRecorder(redisClient, cfg.HistoryLimit, cfg.HistoryTTL)
		log.Printf("Action history enabled (limit %d, ttl %s)", cfg.HistoryLimit, cfg.HistoryTTL)
	}

	mutationEngine := engine.New(wooClient, sessionStore, events, recorder)

	cartHandler := cartshttp.NewCartHandler(mutationEngine)
	sseHandler := cartshttp.NewSSEHandler(broadcaster)
	router := cartshttp.NewRouter(cartHandler, sseHandler, cfg.CORSOrigins)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Cart events service listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down cart events service...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Cart events service stopped")
}
