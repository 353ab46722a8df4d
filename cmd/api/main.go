package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"gemhub-inventory-api/internal/config"
	"gemhub-inventory-api/internal/events"
	"gemhub-inventory-api/internal/handler"
	"gemhub-inventory-api/internal/middleware"
	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/internal/repository"
	"gemhub-inventory-api/internal/router"
	"gemhub-inventory-api/internal/service"
	"gemhub-inventory-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	log, err := logger.New(cfg.App.Environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("starting gemhub inventory api",
		"version", cfg.App.Version, "environment", cfg.App.Environment)

	// Initialize diamond repository based on config
	var diamondRepo repository.DiamondRepository
	var supplierRepo repository.SupplierConfigRepository

	switch cfg.InventoryDB.Type {
	case "mongodb", "mongo":
		mongoRepo, err := repository.NewMongoDiamondRepository(
			cfg.InventoryDB.MongoURI,
			cfg.InventoryDB.MongoDatabase,
			cfg.InventoryDB.MongoCollection,
			log,
		)
		if err != nil {
			log.Fatal("mongodb initialization failed", "error", err)
		}
		defer mongoRepo.Close()
		diamondRepo = mongoRepo
		supplierRepo = repository.NewMongoSupplierConfigRepository(
			mongoRepo.Client(),
			cfg.InventoryDB.MongoDatabase,
			cfg.InventoryDB.SupplierCollection,
		)
		log.Info("mongodb diamond repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteDiamondRepository(cfg.InventoryDB.Path, log)
		if err != nil {
			log.Fatal("sqlite initialization failed", "error", err)
		}
		defer sqliteRepo.Close()
		diamondRepo = sqliteRepo
		log.Warn("sqlite store has no supplier config persistence; auto-sync disabled")
	}

	// Initialize MySQL connection for supplier accounts (optional)
	var accountRepo repository.AccountRepository

	mysqlDB, err := sql.Open("mysql", cfg.AccountsDB.DSN())
	if err != nil {
		log.Warn("mysql connection failed", "error", err)
	} else {
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := mysqlDB.Ping(); err != nil {
			log.Warn("mysql ping failed", "error", err)
			mysqlDB.Close()
			mysqlDB = nil
		} else {
			accountRepo = repository.NewMySQLAccountRepository(mysqlDB)
			log.Info("mysql account repository initialized")
		}
	}
	if mysqlDB != nil {
		defer mysqlDB.Close()
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis connection failed", "error", err)
		redisClient = nil
	} else {
		log.Info("redis client initialized")
	}
	cancelPing()

	// Initialize services
	var tokenService *service.TokenService
	var publisher events.Publisher
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient, log)
		publisher = events.NewRedisPublisher(redisClient, cfg.Redis.Channel, log)
	}

	syncEngine := service.NewSyncEngine(diamondRepo, supplierRepo, publisher, log, service.SyncEngineConfig{
		FetchTimeout:    cfg.Sync.FetchTimeout,
		TransferTimeout: cfg.Sync.TransferTimeout,
		Disposition:     model.Disposition(cfg.Sync.Disposition),
	})

	var scheduler *service.AutoSyncScheduler
	if cfg.Scheduler.Enabled && supplierRepo != nil {
		scheduler = service.NewAutoSyncScheduler(syncEngine, supplierRepo, service.SchedulerConfig{
			Interval: cfg.Scheduler.Interval,
		}, log)
		scheduler.Start()
		defer scheduler.Stop()
		log.Info("auto-sync scheduler started", "interval", cfg.Scheduler.Interval)
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	syncHandler := handler.NewSyncHandler(syncEngine)
	inventoryHandler := handler.NewInventoryHandler(diamondRepo)
	adminHandler := handler.NewAdminHandler(diamondRepo, scheduler, cfg.InventoryDB.Type)

	var authHandler *handler.AuthHandler
	if tokenService != nil && accountRepo != nil {
		authHandler = handler.NewAuthHandler(tokenService, accountRepo)
	}

	var supplierHandler *handler.SupplierHandler
	if supplierRepo != nil {
		supplierHandler = handler.NewSupplierHandler(supplierRepo)
	}

	// Auth middleware with injected dependencies (NO GLOBALS!)
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:          healthHandler,
		SyncHandler:      syncHandler,
		InventoryHandler: inventoryHandler,
		SupplierHandler:  supplierHandler,
		AdminHandler:     adminHandler,
		AuthHandler:      authHandler,
		AuthMiddleware:   authMiddleware,
		Recovery:         middleware.NewRecovery(log),
		Logging:          middleware.NewLogging(log),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", "address", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	log.Info("server stopped")
}
