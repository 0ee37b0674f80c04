package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/portal/internal/config"
	"github.com/ehr/portal/internal/domain/portal"
	"github.com/ehr/portal/internal/domain/surgery"
	"github.com/ehr/portal/internal/platform/auth"
	"github.com/ehr/portal/internal/platform/db"
	"github.com/ehr/portal/internal/platform/geocache"
	"github.com/ehr/portal/internal/platform/middleware"
	"github.com/ehr/portal/internal/platform/validation"
)

const (
	// tokenIssuer is the iss claim of every access token the portal signs.
	tokenIssuer    = "ehr-portal"
	maxBodySize    = "64K"
	requestTimeout = 15 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "portal-server",
		Short:        "Patient portal API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(phoneCmd())
	return rootCmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the portal API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func jwtConfig(cfg *config.Config) auth.JWTConfig {
	return auth.JWTConfig{
		Issuer:     tokenIssuer,
		SigningKey: []byte(cfg.JWTSecret),
		TTL:        cfg.AccessTokenTTL,
	}
}

// newEcho builds the server with the global middleware chain. Handlers are
// mounted by the caller.
func newEcho(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	v := validation.New()
	portal.RegisterValidations(v)
	e.Validator = v

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(maxBodySize))
	e.Use(middleware.RequestTimeout(requestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	return e
}

// geoStore picks Redis when REDIS_URL is set and the in-process map otherwise.
func geoStore(ctx context.Context, cfg *config.Config) (geocache.Store, *redis.Client, error) {
	client, err := geocache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return geocache.NewMemoryStore(), nil, nil
	}
	return geocache.NewRedisStore(client, cfg.GeoCacheMaxAge), client, nil
}

// revocationStore shares logouts through Redis when it is configured.
func revocationStore(client *redis.Client) auth.RevocationStore {
	if client == nil {
		return auth.NewMemoryRevocationStore()
	}
	return auth.NewRedisRevocationStore(client)
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.IsDev())
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	checks := map[string]db.Check{"database": pool.Ping}

	// Default-country cache
	geo, redisClient, err := geoStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		logger.Info().Msg("geo cache backed by redis")
	} else {
		logger.Info().Msg("geo cache kept in memory")
	}

	e := newEcho(cfg, logger)
	jwtCfg := jwtConfig(cfg)
	jwtCfg.Revocations = revocationStore(redisClient)

	apiV1 := e.Group("/api/v1")
	protected := e.Group("/api/v1", auth.JWTMiddleware(jwtCfg))

	limiter := middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	})

	// Portal accounts
	portalSvc := portal.NewService(portal.NewAccountRepoPG(pool), auth.NewIssuer(jwtCfg), logger,
		portal.WithRevocations(jwtCfg.Revocations))
	portal.NewHandler(portalSvc, limiter).RegisterRoutes(apiV1, protected)

	// Phone form helpers
	portal.NewPhoneHandler(geo, portal.PhoneConfig{
		DefaultCountry: cfg.DefaultCountry,
		GeoHeader:      cfg.GeoHeader,
		MaxAge:         cfg.GeoCacheMaxAge,
	}, logger).RegisterRoutes(apiV1)

	// Surgery records
	surgerySvc := surgery.NewService(surgery.NewRecordRepoPG(pool), logger,
		surgery.WithTransactions(func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		}))
	surgery.NewHandler(surgerySvc).RegisterRoutes(apiV1, protected)

	// Health
	e.GET("/health", db.HealthHandler(checks))
	e.GET("/health/pool", func(c echo.Context) error {
		return c.JSON(http.StatusOK, db.GetPoolStats(pool))
	})

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
