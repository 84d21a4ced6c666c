package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"events-portal/internal/config"
	"events-portal/internal/diagnostics"
	"events-portal/internal/events"
	"events-portal/internal/gateway"
	"events-portal/internal/kafka"
	"events-portal/internal/logger"
	"events-portal/internal/models"
	"events-portal/internal/notify"
	"events-portal/internal/shell"
	"events-portal/internal/sse"
)

// verifyConnections opens the diagnostic log and, when enabled, Redis.
// A nil Redis client means toasts stay in memory.
func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*diagnostics.DB, *redis.Client) {
	bunDB, err := diagnostics.Open(cfg.Diagnostics.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open diagnostics database: %v", err))
	}
	diag := &diagnostics.DB{Bun: bunDB}
	if err := diag.Migrate(ctx); err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	log.Info("DATABASE", "Diagnostics database ready")

	if !cfg.Redis.Enabled {
		log.Info("REDIS", "Redis disabled, keeping toasts in memory")
		return diag, nil
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, redisClient.Options().DB))
	return diag, redisClient
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, ".env file not found, using environment variables")
	}
	cfg := config.Load()

	log := logger.New(logger.Options{Level: cfg.Log.Level, Dir: cfg.Log.Dir})
	defer log.Close()

	log.Info("APP", "Starting events portal initialization")

	mode, err := models.ParseMatchMode(cfg.View.CategoryMatch)
	if err != nil {
		log.Fatal("CONFIG", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	diag, redisClient := verifyConnections(ctx, cfg, log)
	defer diag.Bun.Close()

	var toasts notify.Store = notify.NewMemoryStore()
	if redisClient != nil {
		defer redisClient.Close()
		toasts = notify.NewRedisStore(redisClient, cfg.Redis.ToastTTL)
	}

	changes := sse.NewChangeEmitter()
	publishers := events.Publishers{changes}
	reporter := &events.Reporter{
		Logger:   log,
		Recorder: diag,
		Notifier: &notify.SessionNotifier{Store: toasts, Logger: log},
	}

	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, []string{cfg.Kafka.EventsTopic}, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, log)
		defer producer.Close()
		publishers = append(publishers, producer)
		log.Info("KAFKA", fmt.Sprintf("Publishing event changes to %s", cfg.Kafka.EventsTopic))
	}

	reporter.Publisher = publishers

	client := &http.Client{Timeout: cfg.API.Timeout}
	gw := gateway.NewClient(cfg.API.BaseURL, client, log)
	log.Info("GATEWAY", fmt.Sprintf("Using events API at %s", gw.BaseURL()))

	sessions := shell.NewRegistry(
		cfg.View.SessionTTL,
		shell.NewSessionFactory(gw, reporter, mode, cfg.API.CategoryFanout),
		log,
	)
	defer sessions.CloseAll()
	go sessions.Run(ctx, time.Minute)

	handler := shell.NewHandler(shell.Options{
		Sessions:     sessions,
		Toasts:       toasts,
		Diagnostics:  diag,
		Changes:      changes,
		Logger:       log,
		PublicURL:    cfg.Server.PublicURL,
		SuspenseWait: cfg.View.SuspenseWait,
		LoadTimeout:  cfg.API.Timeout,
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Events portal running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Events portal shutdown complete")
	}
}
