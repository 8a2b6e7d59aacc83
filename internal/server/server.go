package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/optima-medical/staffserver/config"
	"github.com/optima-medical/staffserver/internal/auth"
	"github.com/optima-medical/staffserver/internal/db"
	"github.com/optima-medical/staffserver/internal/handlers"
	"github.com/optima-medical/staffserver/internal/mailer"
	"github.com/optima-medical/staffserver/internal/mq"
	"github.com/optima-medical/staffserver/internal/services"
	"github.com/optima-medical/staffserver/internal/storage"
	"github.com/optima-medical/staffserver/internal/store"
	"go.uber.org/zap"
)

// Server wraps the HTTP server, router, and owned resources. The database
// handle and queue connection are opened here and closed on shutdown; no
// package-level singletons.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	logger     *zap.Logger
}

// New constructs a Server with the middleware stack and all routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	codec := auth.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var queue *mq.MQ
	var notifier mailer.Notifier
	if cfg.MQ.Backend != "" {
		queue, err = mq.Connect(ctx, cfg.MQ)
		if err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("connect mq: %w", err)
		}
		notifier = mailer.NewQueueNotifier(queue)
	} else {
		notifier, err = mailer.NewSMTPNotifier(cfg.SMTP)
		if err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	var avatarStorage *storage.Storage
	if cfg.Storage.Backend != "" {
		avatarStorage, err = storage.Connect(ctx, cfg.Storage)
		if err != nil {
			closeAll(dbConn, queue)
			return nil, fmt.Errorf("connect storage: %w", err)
		}
		if err := avatarStorage.EnsureBucket(ctx); err != nil {
			closeAll(dbConn, queue)
			return nil, fmt.Errorf("ensure avatar bucket: %w", err)
		}
	}

	authService := services.NewAuthService(userRepo, codec, logger)
	userService := services.NewUserService(userRepo)
	verificationService := services.NewVerificationService(userRepo, notifier, cfg.Auth.CodeTTL, logger)

	gates := handlers.NewGates(codec, authService, userService, cfg.Auth.SecureCookies, cfg.Auth.TokenTTL, logger)
	authHandler := handlers.NewAuthHandler(authService, userService, cfg.Auth.SecureCookies, cfg.Auth.TokenTTL)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	profileHandler := handlers.NewProfileHandler(userService, avatarStorage)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		handlers.EdgeGate,
	)

	router.Get("/healthz", handlers.Healthz)

	// Page entry points run the request-boundary gate; the home page also
	// runs the authoritative page-level gate.
	router.With(gates.Boundary, gates.RequireVerified).Get("/", handlers.Home)
	router.With(gates.Boundary).Get("/login", handlers.SignIn)
	router.With(gates.Boundary).Get("/verify-email", handlers.VerifyEmail)
	router.With(gates.Identify).Get("/logout", authHandler.LogoutPage)

	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler, verificationHandler, gates)
	})
	router.Route("/api/user", func(r chi.Router) {
		handlers.ProfileRouter(r, profileHandler, gates)
	})
	router.With(gates.RequireAuth, gates.RequireVerified).Get("/api/dashboard", handlers.Dashboard)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown and releases owned resources.
func (s *Server) Shutdown() error {
	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	_ = s.logger.Sync()
	return s.httpServer.Close()
}

func closeAll(dbConn *sql.DB, queue *mq.MQ) {
	if queue != nil {
		_ = queue.Close()
	}
	if dbConn != nil {
		_ = dbConn.Close()
	}
}
