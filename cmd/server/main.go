package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"oj_account/internal/api"
	"oj_account/internal/api/middleware"
	"oj_account/internal/app/service"
	"oj_account/internal/app/worker"
	"oj_account/internal/common/security"
	"oj_account/internal/domain/repository"
	"oj_account/internal/platform/cache"
	"oj_account/internal/platform/config"
	"oj_account/internal/platform/database"
	"oj_account/internal/platform/logger"
	"oj_account/internal/platform/notify"
	"oj_account/internal/platform/queue"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig

	log := logger.New(logger.Config{
		Service: "oj-account",
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	log.Info("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT(cfg.JWTKey, cfg.JWTExp)

	// 3. Initialize Database
	if err := database.Connect(); err != nil {
		log.Error("Could not connect to database", slog.Any("err", err))
		os.Exit(1)
	}
	defer database.Close()
	log.Info("Database connected.", slog.String("driver", cfg.DBDriver))

	// 4. Initialize Redis. Without it stats are computed on every request.
	var statsCache service.StatsCache
	if err := queue.ConnectRedis(); err != nil {
		log.Warn("Redis unavailable, stats cache disabled", slog.Any("err", err))
	} else {
		defer queue.CloseRedis()
		statsCache = cache.NewRedisStatsCache(queue.RDB, cfg.StatsCacheTTL)
	}

	// 5. Initialize Repositories
	userRepo := repository.NewSQLUserRepository(database.DB, database.CurrentDialect)
	submissionRepo := repository.NewSQLSubmissionRepository(database.DB, database.CurrentDialect)

	// 6. Initialize Services
	identityService := service.NewIdentityService(userRepo, security.NewBcryptHasher(cfg.BcryptCost), cfg.PasswordResetTokenExpireSeconds, time.Now)
	authService := service.NewAuthService(userRepo, identityService)
	userService := service.NewUserService(userRepo, identityService)
	statsService := service.NewStatsService(submissionRepo, statsCache)

	// 7. Initialize Stats Worker (as a goroutine)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	workerDone := make(chan struct{})
	if statsCache != nil {
		statsWorker := worker.NewStatsWorker(queue.RDB, cfg.SubmissionEventsQueue, statsCache, log)
		go func() {
			defer close(workerDone)
			statsWorker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(api.Services{
		Auth:  authService,
		User:  userService,
		Stats: statsService,
	}, api.Options{
		Logger:      log,
		ResetSender: notify.NewSender(cfg, log),
		AuthRateLimit: middleware.RateLimitConfig{
			RequestsPerWindow: cfg.AuthRateLimitRequests,
			Window:            cfg.AuthRateLimitWindow,
			Burst:             cfg.AuthRateLimitRequests,
		},
		RequestTimeout: 60 * time.Second,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("Server starting", slog.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Could not listen", slog.String("port", cfg.APIPort), slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-stop // Wait for interrupt signal

	log.Info("Shutting down server...")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", slog.Any("err", err))
	}
	<-workerDone

	log.Info("Server and worker stopped gracefully.")
}
