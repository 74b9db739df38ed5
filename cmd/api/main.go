package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aydintok/gatehouse/internal/auth"
	"github.com/aydintok/gatehouse/internal/background"
	"github.com/aydintok/gatehouse/internal/config"
	"github.com/aydintok/gatehouse/internal/database"
	"github.com/aydintok/gatehouse/internal/handlers"
	middlewareCustom "github.com/aydintok/gatehouse/internal/middleware"
	"github.com/aydintok/gatehouse/internal/models"
	"github.com/aydintok/gatehouse/internal/repositories"
	"github.com/aydintok/gatehouse/internal/routes"
	"github.com/aydintok/gatehouse/internal/services"
	pkgauth "github.com/aydintok/gatehouse/pkg/auth"
	pkghttp "github.com/aydintok/gatehouse/pkg/http"
	pkglogger "github.com/aydintok/gatehouse/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Run migrations before opening the pool
	if err := database.Migrate(cfg.Database.DSN(), logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	accountRepo := repositories.NewAccountRepository(db)
	quotaRepo := repositories.NewIPQuotaRepository(db)
	failureRepo := repositories.NewLoginFailureRepository(db)
	auditRepo := repositories.NewAuditEntryRepository(db)

	// Rate-limit state lives in Postgres by default; Redis is available
	// for deployments that want it out of the primary store.
	var rateLimitStore services.RateLimitStore = failureRepo
	if cfg.RateLimit.Backend == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		rateLimitStore = repositories.NewRedisRateLimitStore(redisClient)
	}

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(failureRepo, auditRepo, logger, cfg.Auth.CleanupInterval, cfg.Auth.AuditRetention)

	// Initialize session manager and password verifier
	sessionManager := auth.NewSessionManager(cfg.Auth.SessionSecret)

	verifier, err := pkgauth.NewVerifier(cfg.Auth.PasswordScheme)
	if err != nil {
		logger.Error("failed to select password verifier", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Initialize services
	rateLimitService := services.NewRateLimitService(rateLimitStore, cfg.RateLimit.MaxFailures, cfg.RateLimit.Window, logger)
	quotaService := services.NewQuotaService(quotaRepo, logger)
	auditService := services.NewAuditService(auditRepo, logger)
	admissionService := services.NewAdmissionService(
		accountRepo,
		verifier,
		rateLimitService,
		quotaService,
		auditService,
		sessionManager,
		auditLogger,
		logger,
	)

	// Initialize handlers
	ipExtractor := pkghttp.NewClientIPExtractor(cfg.Server.TrustedProxies)
	authHandler := handlers.NewAuthHandler(admissionService, ipExtractor)
	adminHandler := handlers.NewAdminHandler(quotaService, auditService, auditLogger)

	// Bootstrap first admin account if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminAccount(ctx, accountRepo, logger); err != nil {
		logger.Error("failed to ensure admin account", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, adminHandler, sessionManager)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminAccount creates the first admin account if ADMIN_USERNAME
// and ADMIN_PASSWORD are set
func ensureAdminAccount(ctx context.Context, accountRepo *repositories.AccountRepository, logger *slog.Logger) error {
	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminUsername == "" || adminPassword == "" {
		logger.Info("no ADMIN_USERNAME or ADMIN_PASSWORD set, skipping admin account creation")
		return nil
	}

	_, err := accountRepo.Lookup(ctx, adminUsername)
	if err == nil {
		logger.Info("admin account already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	hashedPassword, err := pkgauth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.Account{
		Username:          adminUsername,
		PasswordSecret:    hashedPassword,
		Company:           os.Getenv("ADMIN_COMPANY"),
		MaxIPCount:        models.DefaultMaxIPCount,
		IPTrackingEnabled: true,
		IsActive:          true,
		IsAdmin:           true,
	}

	if _, err := accountRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Info("admin account created successfully")
	return nil
}
