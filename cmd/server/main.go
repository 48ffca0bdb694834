package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"kawanumkm/internal/config"
	"kawanumkm/internal/database"
	"kawanumkm/internal/handlers"
	"kawanumkm/internal/logger"
	"kawanumkm/internal/security"
	"kawanumkm/internal/service"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, Debug: cfg.Debug})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	startup := handlers.NewStartupStatus(handlers.StepDatabase, handlers.StepMigrations, handlers.StepServices, handlers.StepServer)

	// Listen straight away so health checks can follow startup progress
	var current atomic.Pointer[http.Handler]
	var boot http.Handler = bootHandler(startup, log)
	current.Store(&boot)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			(*current.Load()).ServeHTTP(w, r)
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	log.Info("database connection established", zap.String("type", cfg.DatabaseType))
	startup.CompleteStep(handlers.StepDatabase)

	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(ctx, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	startup.CompleteStep(handlers.StepMigrations)

	startup.SetCurrentStep(handlers.StepServices)
	hasher, err := security.NewPasswordHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := security.NewTokenIssuer(cfg.JWTSecret, cfg.SessionDuration, security.WithIssuer(cfg.JWTIssuer))
	if err != nil {
		return err
	}
	mailer, err := service.NewEmailService(ctx, service.EmailConfig{
		AWSRegion: cfg.AWSRegion,
		FromEmail: cfg.SESFromEmail,
		FromName:  cfg.SESFromName,
		LinkTTL:   cfg.ResetTokenTTL,
		Debug:     cfg.Debug,
	}, log)
	if err != nil {
		return err
	}

	authService := service.NewAuthService(db, hasher, tokens, log)
	resetService := service.NewPasswordResetService(db, hasher, security.NewResetTokenDigester(cfg.ResetDigestKey()),
		mailer, cfg.ResetTokenTTL, cfg.AppBaseURL, log)
	directoryService := service.NewDirectoryService(db, log)

	limiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow, security.WithTrustedProxyHeaders(cfg.TrustProxy))
	defer limiter.Stop()

	router := handlers.NewRouter(handlers.Routes{
		Middleware:     handlers.NewMiddleware(tokens, limiter, log),
		Auth:           handlers.NewAuthHandler(authService, resetService, log),
		Business:       handlers.NewBusinessHandler(directoryService, log),
		Admin:          handlers.NewAdminHandler(directoryService, log),
		Health:         handlers.NewHealthHandler(db, startup, log),
		AllowedOrigins: cfg.AllowedOrigins,
	}, log)
	current.Store(&router)
	startup.CompleteStep(handlers.StepServices)

	go cleanupExpiredResetTokens(ctx, resetService, log)

	startup.MarkReady()
	log.Info("server ready", zap.Bool("email_enabled", mailer.IsEnabled()))

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}

// bootHandler answers health checks with startup progress and everything
// else with 503 until the real router is installed.
func bootHandler(startup *handlers.StartupStatus, log *zap.Logger) http.Handler {
	health := handlers.NewHealthHandler(nil, startup, log)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /api/health", health.Liveness)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server is starting", http.StatusServiceUnavailable)
	})
	return mux
}

// cleanupExpiredResetTokens periodically removes expired and used reset tokens
func cleanupExpiredResetTokens(ctx context.Context, resetService *service.PasswordResetService, log *zap.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := resetService.CleanupExpired(ctx); err != nil {
				log.Error("failed to clean up reset tokens", zap.Error(err))
			}
		}
	}
}
