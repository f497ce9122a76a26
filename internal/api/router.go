package api

import (
	"log/slog"
	"net/http"
	"oj_account/internal/api/handler"
	"oj_account/internal/api/middleware"
	"oj_account/internal/app/service"
	"oj_account/internal/common/security"
	"oj_account/internal/platform/logger"
	"oj_account/internal/platform/notify"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

type Services struct {
	Auth  *service.AuthService
	User  *service.UserService
	Stats *service.StatsService
}

type Options struct {
	Logger         *slog.Logger
	ResetSender    notify.Sender
	AuthRateLimit  middleware.RateLimitConfig
	RequestTimeout time.Duration
}

func NewRouter(services Services, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RealIP)
	r.Use(logger.HTTPMiddleware(opts.Logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(opts.RequestTimeout))

	// Looks for "Authorization: Bearer T" and puts the verified token in the
	// context. Routes that need a user add middleware.Authenticator.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(services.Auth, opts.ResetSender)
		v1.Route("/auth", func(auth chi.Router) {
			auth.Use(middleware.RateLimit(opts.AuthRateLimit, middleware.IPKeyExtractor))
			authHandler.RegisterRoutes(auth)
		})

		userHandler := handler.NewUserHandler(services.User, services.Stats)
		v1.Route("/users", userHandler.RegisterRoutes)
	})

	return r
}
