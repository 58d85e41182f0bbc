package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Techtaurant/be/internal/cache"
	"github.com/Techtaurant/be/internal/config"
	"github.com/Techtaurant/be/internal/cookie"
	"github.com/Techtaurant/be/internal/database"
	"github.com/Techtaurant/be/internal/handler"
	"github.com/Techtaurant/be/internal/metrics"
	"github.com/Techtaurant/be/internal/middleware"
	"github.com/Techtaurant/be/internal/oauth"
	"github.com/Techtaurant/be/internal/repository"
	"github.com/Techtaurant/be/internal/router"
	"github.com/Techtaurant/be/internal/service"
	"github.com/Techtaurant/be/internal/token"
)

type App struct {
	server       *http.Server
	cfg          *config.Config
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()
	app := &App{cfg: cfg}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.Database.URL, database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.cleanupFuncs = append(app.cleanupFuncs, db.Close)

	if err := db.Migrate(ctx); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("database ready")

	redisClient, err := cache.NewClient(ctx, cache.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.StoreTimeout,
		WriteTimeout: cfg.StoreTimeout,
	})
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.cleanupFuncs = append(app.cleanupFuncs, func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("close redis client", "error", err)
		}
	})
	refreshCache := cache.NewRefreshTokenCache(redisClient, cfg.Redis.KeyPrefix)

	signer, err := token.NewSigner(cfg.JWT.SecretBytes())
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize signer: %w", err)
	}
	codec, err := token.NewCodec(signer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL, token.WithIssuer(cfg.JWT.Issuer))
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	sameSite, err := cfg.Cookie.SameSiteMode()
	if err != nil {
		app.cleanup()
		return nil, err
	}
	cookies := cookie.NewManager(cookie.Config{
		AccessName:  cfg.Cookie.AccessName,
		RefreshName: cfg.Cookie.RefreshName,
		Domain:      cfg.Cookie.Domain,
		Path:        cfg.Cookie.Path,
		Secure:      cfg.Cookie.Secure,
		HTTPOnly:    cfg.Cookie.HTTPOnly,
		SameSite:    sameSite,
	})

	m := metrics.New()
	users := repository.NewUserRepository(db.Pool)

	tokenService := service.NewTokenService(codec, refreshCache, cfg.StoreTimeout, m)
	refreshService := service.NewRefreshService(tokenService, users, cfg.CacheCompareAndSwap)
	logoutService := service.NewLogoutService(tokenService)
	loginService := service.NewLoginService(tokenService, users)
	userService := service.NewUserService(users, cfg.StoreTimeout)

	providers := oauth.Registry{}
	if cfg.OAuth.GoogleEnabled() {
		providers["google"] = oauth.NewGoogleProvider(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.GoogleRedirectURL)
		slog.Info("oauth provider enabled", "provider", "google")
	} else {
		slog.Warn("no oauth provider configured; sign-in is disabled")
	}

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(codec, cfg.Cookie.AccessName, m), router.Handlers{
		Auth: handler.NewAuthHandler(refreshService, logoutService, cookies),
		OAuth: handler.NewOAuthHandler(providers, loginService, cookies, handler.OAuthRedirects{
			Success:  cfg.OAuth.SuccessRedirectURL,
			Failure:  cfg.OAuth.FailureRedirectURL,
			StateTTL: cfg.OAuth.StateTTL,
		}),
		User: handler.NewUserHandler(userService),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": db,
			"redis":    refreshCache,
		}, cfg.StoreTimeout),
		Metrics: m.Handler(),
	})

	app.server = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	return app, nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		a.cleanup()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Drain in-flight requests before closing the stores they use.
	err := a.server.Shutdown(shutdownCtx)
	a.cleanup()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
