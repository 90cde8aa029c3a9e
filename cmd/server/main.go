package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "lendahand-backend/internal/api/grpc"
	httpapi "lendahand-backend/internal/api/http"
	"lendahand-backend/internal/cache"
	"lendahand-backend/internal/config"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/repository/postgres"
	"lendahand-backend/internal/security"
	"lendahand-backend/internal/service"
	"lendahand-backend/internal/storage"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting LendAHand backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL())

	healthChecks := map[string]httpapi.HealthCheck{"database": db.PingContext}
	grpcChecks := map[string]api.Check{"database": db.PingContext}

	// Initialize Idempotency Store
	var idempotency cache.IdempotencyStore
	if cfg.Redis.Enabled {
		redisClient := cache.NewRedisClient(cache.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer redisClient.Close()
		if err := cache.HealthCheck(context.Background(), redisClient); err != nil {
			logger.Warn("Redis is not reachable yet; idempotency keys will be skipped until it is", "error", err)
		}
		idempotency = cache.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL())
		redisCheck := func(ctx context.Context) error { return cache.HealthCheck(ctx, redisClient) }
		healthChecks["redis"] = redisCheck
		grpcChecks["redis"] = redisCheck
		logger.Info("Idempotency keys enabled", "redis_addr", cfg.Redis.Addr, "ttl", cfg.IdempotencyTTL().String())
	}

	// Initialize Storage Service
	imageStore, err := storage.New(storage.Config{
		Type:      cfg.Storage.Type,
		UploadDir: cfg.Storage.UploadDir,
		BaseURL:   cfg.Storage.BaseURL,
	})
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "type", cfg.Storage.Type)
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	maxUploadBytes := cfg.Storage.MaxFileSize << 20

	// Initialize Services
	ledger := service.NewLedger()
	gate := service.NewDisputeGate()
	bookingSvc := service.NewBookingService(store, ledger, service.NewAvailabilityTracker(), gate, service.BookingOptions{
		ReclaimEarningOnReturn: cfg.Booking.ReclaimEarningOnReturn,
	})
	walletSvc := service.NewWalletService(store, ledger, service.WalletOptions{
		MaxTopup:           cfg.MaxTopupAmount(),
		RecentTransactions: cfg.Wallet.RecentTransactions,
		Currency:           cfg.Wallet.Currency,
	})
	disputeSvc := service.NewDisputeService(store, gate)
	imageSvc := service.NewImageService(imageStore, service.ImageOptions{
		MaxFileSize:  maxUploadBytes,
		AllowedTypes: cfg.Storage.AllowedTypes,
	})

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Bookings:       bookingSvc,
		Wallets:        walletSvc,
		Disputes:       disputeSvc,
		Images:         imageSvc,
		TokenManager:   tokenManager,
		Idempotency:    idempotency,
		HealthChecks:   healthChecks,
		MaxUploadBytes: maxUploadBytes,
	})
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Set up gRPC health/reflection server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter := api.NewHealthReporter(grpcChecks)
	go reporter.Run(ctx, 15*time.Second)
	grpcServer := api.NewServer(reporter)

	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	go func() {
		logger.Info("gRPC health server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Server stopped")
}
