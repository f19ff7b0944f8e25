// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the composition root. New connects the store, the optional
// collaborators (Redis, MinIO, OAuth providers, news API), the identity hub
// and the session state, then hands the services to the handlers.
//
// OPTIONAL COLLABORATORS:
// Anything that needs credentials or a network service is switched off with a
// warning when it is not configured or not reachable at startup:
//   - no Redis        → news pages are not cached
//   - no MinIO        → settings export answers 503
//   - no news API key → /api/news answers 503
//   - no OAuth client → that provider is not offered
//
// The store and the JWT secret are mandatory.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/editorialchain/internal/app"
	"github.com/sakif/editorialchain/internal/auth"
	"github.com/sakif/editorialchain/internal/cache"
	"github.com/sakif/editorialchain/internal/config"
	"github.com/sakif/editorialchain/internal/handler"
	"github.com/sakif/editorialchain/internal/identity"
	"github.com/sakif/editorialchain/internal/metrics"
	"github.com/sakif/editorialchain/internal/middleware"
	"github.com/sakif/editorialchain/internal/news"
	"github.com/sakif/editorialchain/internal/repository"
	mongoRepo "github.com/sakif/editorialchain/internal/repository/mongo"
	sqliteRepo "github.com/sakif/editorialchain/internal/repository/sqlite"
	"github.com/sakif/editorialchain/internal/service"
	minioStorage "github.com/sakif/editorialchain/internal/storage/minio"
)

// hubBuffer is the per-subscriber event buffer of the identity hub.
const hubBuffer = 64

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store connection, the Redis client and the session
// state goroutine. Close releases them in reverse order of creation.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger

	tokens   *auth.TokenService
	state    *app.State
	stopRun  context.CancelFunc
	registry *prometheus.Registry

	closers []func() error
}

// stores groups the two store interfaces; both drivers implement both.
type stores struct {
	profiles    repository.ProfileStore
	preferences repository.PreferenceStore
}

// New creates a Server from cfg. ctx bounds the startup checks (store
// connection, Redis ping, MinIO bucket, OIDC discovery).
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		return nil, fmt.Errorf("configuring sessions: %w", err)
	}
	loc, err := cfg.Server.Location()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		tokens: tokens,
	}

	st, err := s.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	newsSource := s.newsSource(ctx)
	archive := s.settingsArchive(ctx)
	providers := s.providers(ctx)

	// === SESSION STATE ===
	// One subscriber reconciles every identity event in publish order.
	hub := identity.NewHub(hubBuffer)
	reconciler := service.NewReconciler(st.profiles, loc, logger)
	s.state = app.New(hub, reconciler, tokens.TTL(), logger)
	tokens.SetRevocations(s.state)

	runCtx, cancel := context.WithCancel(context.Background())
	s.stopRun = cancel
	go s.state.Run(runCtx)

	// === SERVICES → HANDLERS ===
	authService := service.NewAuthService(providers, tokens, hub, s.state, logger)
	authHandler := handler.NewAuthHandler(authService, s.state, handler.CookieConfig{
		TTL:    tokens.TTL(),
		Secure: cfg.Server.CookieSecure,
	}, cfg.Server.RedirectURL, logger)

	apiHandler := handler.NewAPIHandler(
		service.NewLeaderboardService(st.profiles, logger),
		newsSource,
		service.NewReadingService(st.profiles, logger),
		service.NewPreferenceService(st.preferences, archive, logger),
		logger,
	)
	profileHandler := handler.NewProfileHandler(service.NewProfileService(st.profiles, s.state, logger), logger)

	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.RegisterCollectors(s.registry)

	s.setupRoutes(authHandler, apiHandler, profileHandler)
	return s, nil
}

// openStore connects the configured driver and registers its Close.
func (s *Server) openStore(ctx context.Context) (*stores, error) {
	cfg := s.config.Store
	switch cfg.Driver {
	case "sqlite":
		if cfg.SQLitePath != ":memory:" {
			// MkdirAll works like `mkdir -p`.
			if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		s.logger.Info("store ready", slog.String("driver", "sqlite"), slog.String("path", cfg.SQLitePath))
		return &stores{profiles: db, preferences: db}, nil

	case "mongo":
		client, err := mongoRepo.Connect(ctx, cfg.MongoURI, cfg.MongoTimeout)
		if err != nil {
			return nil, err
		}
		store := mongoRepo.NewStore(client.Database(cfg.MongoDB))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		s.closers = append(s.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoTimeout)
			defer cancel()
			return client.Disconnect(ctx)
		})
		s.logger.Info("store ready", slog.String("driver", "mongo"), slog.String("database", cfg.MongoDB))
		return &stores{profiles: store, preferences: store}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q (want sqlite or mongo)", cfg.Driver)
}

// newsSource returns nil when no API key is configured, so the handler can
// answer 503 without calling out.
func (s *Server) newsSource(ctx context.Context) handler.NewsSource {
	cfg := s.config.News
	if cfg.APIKey == "" {
		s.logger.Warn("NEWS_API_KEY not set, /api/news is disabled")
		return nil
	}

	// A typed nil must not end up in the interface.
	var pageCache repository.NewsCache
	if s.config.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     s.config.Redis.Addr,
			Password: s.config.Redis.Password,
			DB:       s.config.Redis.DB,
		})
		c := cache.NewNewsCache(client, "", cfg.CacheTTL)
		if err := c.Ping(ctx); err != nil {
			s.logger.Warn("redis unreachable, news cache disabled",
				slog.String("addr", s.config.Redis.Addr),
				slog.String("error", err.Error()),
			)
			_ = client.Close()
		} else {
			pageCache = c
			s.closers = append(s.closers, client.Close)
		}
	}

	return news.NewClient(news.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		RPS:     cfg.RPS,
		Burst:   cfg.Burst,
		Timeout: cfg.Timeout,
	}, pageCache, s.logger)
}

func (s *Server) settingsArchive(ctx context.Context) repository.SettingsArchive {
	cfg := s.config.MinIO
	if cfg.Endpoint == "" {
		s.logger.Warn("MINIO_ENDPOINT not set, settings export is disabled")
		return nil
	}
	client, err := minioStorage.Dial(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.UseSSL)
	if err != nil {
		s.logger.Warn("settings export disabled", slog.String("error", err.Error()))
		return nil
	}
	archive, err := minioStorage.NewArchive(ctx, client, cfg.Bucket)
	if err != nil {
		s.logger.Warn("settings export disabled", slog.String("error", err.Error()))
		return nil
	}
	return archive
}

func (s *Server) providers(ctx context.Context) auth.Providers {
	var ps []auth.Provider

	if g := s.config.Google; g.Enabled() {
		p, err := auth.NewGoogleProvider(ctx, g.ClientID, g.ClientSecret, s.callbackURL("google"))
		if err != nil {
			s.logger.Warn("google sign-in disabled", slog.String("error", err.Error()))
		} else {
			ps = append(ps, p)
		}
	}
	if gh := s.config.GitHub; gh.Enabled() {
		ps = append(ps, auth.NewGitHubProvider(gh.ClientID, gh.ClientSecret, s.callbackURL("github")))
	}

	if len(ps) == 0 {
		s.logger.Warn("no OAuth provider configured, sign-in is unavailable")
	}
	return auth.NewProviders(ps...)
}

func (s *Server) callbackURL(provider string) string {
	return fmt.Sprintf("%s/auth/%s/callback", s.config.Server.PublicURL, provider)
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                              → liveness
// GET    /metrics                              → Prometheus
// GET    /auth/providers                       → configured sign-in methods
// GET    /auth/{provider}/login                → redirect to the provider
// GET    /auth/{provider}/callback             → finish sign-in
// POST   /auth/logout                          → sign out
// GET    /api/leaderboard                      → public
// GET    /api/news                             → public
// GET    /api/me                               → session required
// POST   /api/reading                          → session required
// PATCH  /api/profile                          → session required
// *      /api/preferences/...                  → session required
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs before Logger so every log line carries the id. On /api
// OptionalSession runs before the rate limiter so signed-in readers are
// limited per identity rather than per IP.
func (s *Server) setupRoutes(authHandler *handler.AuthHandler, apiHandler *handler.APIHandler, profileHandler *handler.ProfileHandler) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	})
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/providers", authHandler.HandleProviders)
		r.Get("/{provider}/login", authHandler.HandleLogin)
		r.Get("/{provider}/callback", authHandler.HandleCallback)
		r.With(auth.OptionalSession(s.tokens)).Post("/logout", authHandler.HandleLogout)
	})

	limiter := middleware.NewRateLimiter(s.config.RateLimit.RPS, s.config.RateLimit.Burst)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.OptionalSession(s.tokens))
		r.Use(limiter.Middleware)

		r.Get("/leaderboard", apiHandler.HandleLeaderboard)
		r.Get("/news", apiHandler.HandleNews)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(s.tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Post("/reading", apiHandler.HandleRecordRead)
			r.Patch("/profile", profileHandler.HandleUpdateProfile)

			r.Route("/preferences", func(r chi.Router) {
				r.Get("/theme", apiHandler.HandleGetTheme)
				r.Put("/theme", apiHandler.HandleSetTheme)
				r.Post("/theme/toggle", apiHandler.HandleToggleTheme)

				r.Get("/settings", apiHandler.HandleGetSettings)
				r.Put("/settings", apiHandler.HandleSaveSettings)
				r.Delete("/settings", apiHandler.HandleResetSettings)
				r.Get("/settings/export", apiHandler.HandleExportSettings)
				r.Post("/settings/import", apiHandler.HandleImportSettings)
			})
		})
	})
}

// Handler exposes the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops the session state and releases every connection.
func (s *Server) Close() error {
	s.stopRun()
	s.state.Close()

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully:
//  1. stop accepting connections and let in-flight requests finish (30s)
//  2. Close: stop reconciling, close the store and Redis
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("store", s.config.Store.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
