package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/authgate/internal/auth"
	"github.com/BradenHooton/authgate/internal/background"
	"github.com/BradenHooton/authgate/internal/config"
	"github.com/BradenHooton/authgate/internal/database"
	"github.com/BradenHooton/authgate/internal/handlers"
	middlewareCustom "github.com/BradenHooton/authgate/internal/middleware"
	"github.com/BradenHooton/authgate/internal/notify"
	"github.com/BradenHooton/authgate/internal/repositories"
	"github.com/BradenHooton/authgate/internal/routes"
	"github.com/BradenHooton/authgate/internal/services"
	pkghttp "github.com/BradenHooton/authgate/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("user_store", cfg.Stores.Users),
		slog.String("token_store", cfg.Stores.BannedTokens),
		slog.String("twofa_store", cfg.Stores.TwoFACodes),
		slog.String("notifier", cfg.Notifier.Kind),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	b, err := openBackends(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to initialize backends", slog.Any("error", err))
		os.Exit(1)
	}
	defer b.close()

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize notifier", slog.Any("error", err))
		os.Exit(1)
	}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, b.bannedTokens)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingBaseMs,
		RandomDelayMs: cfg.Auth.TimingRandomMs,
	})

	authService := services.NewAuthService(services.Dependencies{
		Users:         b.users,
		BannedTokens:  b.bannedTokens,
		TwoFACodes:    b.twoFACodes,
		Tokens:        tokenManager,
		Notifier:      notifier,
		Timing:        timingDelay,
		Logger:        logger,
		NotifyTimeout: cfg.Notifier.Timeout,
	})

	cookies := auth.CookieConfig{
		Name:     cfg.Auth.CookieName,
		Domain:   cfg.Auth.CookieDomain,
		Secure:   cfg.Auth.CookieSecure,
		SameSite: cfg.Auth.CookieSameSite,
	}
	authHandler := handlers.NewAuthHandler(authService, cookies, logger)
	healthHandler := handlers.NewHealthHandler(b.healthChecks, logger)

	ipConfig, err := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid trusted proxies", slog.Any("error", err))
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, authHandler, healthHandler, middlewareCustom.RateLimitConfig{
		RequestsPerMinute: cfg.Server.RateLimitRPM,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	cleanupManager := background.NewCleanupManager(b.purgers, logger, cfg.Auth.CleanupInterval)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

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
		return
	}

	logger.Info("server stopped gracefully")
}

// backends holds the stores chosen by configuration and whatever must be
// closed or health-checked alongside them.
type backends struct {
	users        repositories.UserStore
	bannedTokens repositories.BannedTokenStore
	twoFACodes   repositories.TwoFACodeStore
	healthChecks map[string]handlers.HealthCheck
	purgers      map[string]background.Purger
	closers      []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackends selects every store once. Redis is dialled at most once and
// shared by the token and 2FA stores.
func openBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{
		healthChecks: map[string]handlers.HealthCheck{},
		purgers:      map[string]background.Purger{},
	}

	var redisClient *redis.Client
	getRedis := func() (*redis.Client, error) {
		if redisClient != nil {
			return redisClient, nil
		}
		client, err := database.NewRedisClient(&cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		redisClient = client
		b.healthChecks["redis"] = func(ctx context.Context) error {
			return database.RedisHealthCheck(ctx, client)
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		return client, nil
	}

	fail := func(err error) (*backends, error) {
		b.close()
		return nil, err
	}

	switch cfg.Stores.Users {
	case config.BackendPostgres:
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, cfg.Database.DSN(), logger); err != nil {
				return fail(err)
			}
		}
		db, err := database.NewConnection(ctx, &cfg.Database, logger)
		if err != nil {
			return fail(err)
		}
		b.closers = append(b.closers, db.Close)
		b.healthChecks["postgres"] = db.HealthCheck
		b.users = repositories.NewPostgresUserStore(db)
	case config.BackendSQLite:
		db, err := database.OpenSQLite(cfg.Database.SQLitePath, logger, &repositories.UserRecord{})
		if err != nil {
			return fail(err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fail(fmt.Errorf("failed to get sqlite handle: %w", err))
		}
		b.closers = append(b.closers, func() { _ = sqlDB.Close() })
		b.healthChecks["sqlite"] = sqlDB.PingContext
		b.users = repositories.NewSQLiteUserStore(db)
	default:
		b.users = repositories.NewMemoryUserStore()
	}

	switch cfg.Stores.BannedTokens {
	case config.BackendRedis:
		client, err := getRedis()
		if err != nil {
			return fail(err)
		}
		b.bannedTokens = repositories.NewRedisBannedTokenStore(client)
	default:
		store := repositories.NewMemoryBannedTokenStore()
		b.bannedTokens = store
		b.purgers["banned_tokens"] = store
	}

	switch cfg.Stores.TwoFACodes {
	case config.BackendRedis:
		client, err := getRedis()
		if err != nil {
			return fail(err)
		}
		b.twoFACodes = repositories.NewRedisTwoFACodeStore(client, cfg.Auth.TwoFACodeTTL)
	default:
		store := repositories.NewMemoryTwoFACodeStore(cfg.Auth.TwoFACodeTTL)
		b.twoFACodes = store
		b.purgers["twofa_codes"] = store
	}

	return b, nil
}

func newNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, error) {
	switch cfg.Notifier.Kind {
	case config.NotifierSES:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Notifier.Timeout)
		defer cancel()
		n, err := notify.NewSESNotifier(ctx, cfg.Notifier.SESRegion, cfg.Notifier.EmailFrom, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ses notifier: %w", err)
		}
		return n, nil
	default:
		logger.Warn("using log notifier; 2FA codes are written to the debug log")
		return notify.NewLogNotifier(logger), nil
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
