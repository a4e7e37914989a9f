package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/flowsight-systems/flowsight-stack/common/logging"
	"github.com/flowsight-systems/flowsight-stack/common/messaging"
	"github.com/flowsight-systems/flowsight-stack/common/middleware"
	"github.com/flowsight-systems/flowsight-stack/push/internal/blob"
	"github.com/flowsight-systems/flowsight-stack/push/internal/config"
	"github.com/flowsight-systems/flowsight-stack/push/internal/handlers"
	"github.com/flowsight-systems/flowsight-stack/push/internal/ratelimit"
	"github.com/flowsight-systems/flowsight-stack/push/internal/registry"
	"github.com/flowsight-systems/flowsight-stack/push/internal/server"
	"github.com/flowsight-systems/flowsight-stack/push/internal/service"

	natsclient "github.com/flowsight-systems/flowsight-stack/common/messaging/nats"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("push"))
	logging.SetDefault(logger)

	slog.Info("Starting Push service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Initialize blob store
	var store blob.Store
	if cfg.Blob.Endpoint != "" {
		minioStore, err := blob.NewMinIO(
			cfg.Blob.Endpoint,
			cfg.Blob.AccessKey,
			cfg.Blob.SecretKey,
			cfg.Blob.UseTLS,
			cfg.Blob.Bucket,
		)
		if err != nil {
			log.Fatalf("Failed to connect to blob store: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := minioStore.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to ensure bucket %q: %v", cfg.Blob.Bucket, err)
		}
		cancel()

		store = minioStore
		log.Printf("Blob store: %s (bucket: %s)", cfg.Blob.Endpoint, cfg.Blob.Bucket)
	} else {
		store = blob.NewMemoryStore()
		log.Println("WARNING: No blob endpoint configured - using in-memory store, records are lost on restart")
	}

	// Initialize device registry (optional)
	var repo registry.Repository
	if cfg.Database.URL != "" {
		log.Println("Running database migrations...")
		m, err := migrate.New("file://migrations", cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to initialize migrations: %v", err)
		}
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Database migrations completed")

		pgRepo, err := registry.NewPostgresRepository(context.Background(), cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		repo = pgRepo
		log.Println("Device registry enabled")
	} else {
		log.Println("No database configured - device registry and readings mirror disabled")
	}

	// Initialize message bus (optional)
	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		natsCfg := natsclient.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Name = "push"
		client, err := natsclient.NewClient(natsCfg)
		if err != nil {
			log.Printf("WARNING: Failed to connect to NATS: %v", err)
			log.Println("Continuing without stored-record fan-out")
		} else {
			publisher = client
			defer client.Close()
			log.Printf("Stored-record fan-out enabled (nats: %s)", cfg.NATS.URL)
		}
	} else {
		log.Println("No NATS URL configured - stored-record fan-out disabled")
	}

	// Initialize rate limiter
	var rateLimiter ratelimit.RateLimiter
	if cfg.Ingestion.RateLimitEnabled && cfg.Ingestion.RedisURL != "" {
		limiter, err := ratelimit.NewRedisRateLimiter(
			cfg.Ingestion.RedisURL,
			cfg.Ingestion.RateLimitPerMinute,
			time.Minute,
			false,
		)
		if err != nil {
			log.Printf("WARNING: Failed to initialize Redis rate limiter: %v", err)
			log.Println("Continuing without rate limiting")
			rateLimiter = &ratelimit.NoOpRateLimiter{}
		} else {
			rateLimiter = limiter
			log.Printf("Rate limiting enabled: %d requests per minute", cfg.Ingestion.RateLimitPerMinute)
		}
	} else {
		rateLimiter = &ratelimit.NoOpRateLimiter{}
		log.Println("Rate limiting disabled")
	}
	defer rateLimiter.Close()

	// Initialize ingestion service and handlers
	pushService := service.NewPushService(store, repo, publisher, logger)
	pushHandler := handlers.NewPushHandler(pushService, rateLimiter, cfg.Ingestion.MaxBodyBytes, logger)
	deviceHandler := handlers.NewDeviceHandler(repo, logger)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = cfg.CORS.AllowedOrigins
	}
	router := server.NewRouter(pushHandler, deviceHandler, corsConfig)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Push service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
