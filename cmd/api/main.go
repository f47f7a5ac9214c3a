// Package main is the entry point for the SkyCast API server.
//
// It loads configuration, connects the Postgres pool, builds the weather
// provider clients and the multi-provider aggregator, wires the auth and
// archive services, and starts the HTTP server with the core chassis
// (middleware, routing, health checks).
//
// Graceful shutdown is handled via OS signal interception (SIGINT, SIGTERM).
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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/jackc/pgx/v5/pgxpool"

	"skycast/internal/activities"
	"skycast/internal/api/handlers"
	"skycast/internal/archive"
	"skycast/internal/auth"
	"skycast/internal/config"
	"skycast/internal/core"
	"skycast/internal/db"
	"skycast/internal/external"
	"skycast/internal/observability"
	"skycast/internal/types"
	"skycast/internal/weather"
)

// sessionPurgeInterval controls how often expired sessions are swept from
// the database. Expired sessions are also rejected lazily on resolution, so
// this only bounds table growth.
const sessionPurgeInterval = time.Hour

// archivePurgeInterval controls how often snapshots older than the configured
// retention are deleted.
const archivePurgeInterval = 24 * time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("skycast API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	userRepo := db.NewUserRepository(pool)
	sessionRepo := db.NewSessionRepository(pool)

	authSvc := auth.NewService(auth.ServiceConfig{
		Users:         userRepo,
		Sessions:      sessionRepo,
		SessionSecret: cfg.Auth.SessionSecret.Unmask(),
		BcryptCost:    cfg.Auth.BcryptCost,
		SessionTTL:    cfg.Auth.SessionTTL,
		Logger:        logger,
	})

	archiveStore, err := archive.NewStore(pool, cfg.Archive.CompressionLevel, logger)
	if err != nil {
		pool.Close()
		return fmt.Errorf("creating snapshot archive: %w", err)
	}

	openWeather, sources := buildWeatherClients(cfg, logger)
	aggregator := weather.NewAggregator(sources, cfg.Weather.AggregateTimeout, nil, logger)

	metrics, err := buildMetrics(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		return fmt.Errorf("initializing metrics: %w", err)
	}

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		pool.Close()
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = metrics
	srv.Authenticator = authSvc
	srv.HealthProbes = []core.HealthProbe{&dbProbe{pool: pool}}
	srv.OnShutdown(func(context.Context) error {
		pool.Close()
		return nil
	})

	engine := activities.NewEngine(activities.DefaultCatalog(), logger)
	activityHandler := handlers.NewActivityHandler(engine, openWeather, srv.Validator, logger)
	weatherHandler := handlers.NewWeatherHandler(openWeather, aggregator, archiveStore, logger)
	authHandler := handlers.NewAuthHandler(authSvc, userRepo, srv, srv.Validator, logger)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		weatherHandler.RegisterRoutes,
		activityHandler.RegisterRoutes,
		authHandler.RegisterRoutes,
	)
	srv.MountRoutes()

	go runSessionPurge(ctx, authSvc, logger)
	go runArchivePurge(ctx, archiveStore, cfg.Archive.Retention, logger)

	return runHTTPServer(srv, cfg, logger)
}

// buildWeatherClients constructs the provider clients from configuration.
// OpenWeather is mandatory and doubles as the geocoding and historical
// provider; AccuWeather and Visual Crossing join the aggregation fan-out only
// when their API keys are configured.
func buildWeatherClients(cfg *config.Config, logger *slog.Logger) (*weather.OpenWeatherClient, []types.WeatherSource) {
	httpClient := &http.Client{Timeout: cfg.Weather.RequestTimeout}
	retry := external.DefaultRetryPolicy()
	if cfg.Weather.MaxRetries > 0 {
		retry.MaxRetries = cfg.Weather.MaxRetries
	}
	userAgent := cfg.Service + "/" + cfg.Build.Version

	newBase := func(name string) *external.BaseClient {
		return external.NewBaseClient(httpClient, name, retry, userAgent)
	}

	openWeather := weather.NewOpenWeatherClient(cfg.Weather.OpenWeatherAPIKey, newBase("openweather"), logger)
	sources := []types.WeatherSource{openWeather}

	if cfg.Weather.AccuWeatherAPIKey != "" {
		sources = append(sources,
			weather.NewAccuWeatherClient(cfg.Weather.AccuWeatherAPIKey, newBase("accuweather"), logger))
	}
	if cfg.Weather.VisualCrossingAPIKey != "" {
		sources = append(sources,
			weather.NewVisualCrossingClient(cfg.Weather.VisualCrossingAPIKey, newBase("visualcrossing"), logger))
	}

	logger.Info("weather providers configured", "count", len(sources))
	return openWeather, sources
}

// buildMetrics returns a CloudWatch-backed collector, or a no-op collector
// when metrics are disabled.
func buildMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (core.MetricsCollector, error) {
	if !cfg.Observability.EnableMetrics {
		return observability.NoopMetrics{}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Observability.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}

	client := cloudwatch.NewFromConfig(awsCfg)
	return observability.NewCloudWatchMetrics(client, cfg.Observability.MetricNamespace, logger), nil
}

// runSessionPurge sweeps expired sessions on a fixed interval until the
// context is canceled.
func runSessionPurge(ctx context.Context, svc *auth.Service, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.PurgeExpiredSessions(ctx); err != nil {
				logger.Warn("session purge failed", "error", err)
			}
		}
	}
}

// runArchivePurge deletes archived snapshots older than the retention window
// on a fixed interval until the context is canceled.
func runArchivePurge(ctx context.Context, store *archive.Store, retention time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(archivePurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().UTC().Add(-retention)
			deleted, err := store.Purge(ctx, cutoff)
			if err != nil {
				logger.Warn("archive purge failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("archive purge complete", "deleted", deleted, "cutoff", cutoff)
			}
		}
	}
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server resource shutdown error", "error", err)
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger configured for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

// dbProbe reports database health by pinging the connection pool.
type dbProbe struct {
	pool *pgxpool.Pool
}

func (p *dbProbe) Name() string { return "database" }

func (p *dbProbe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
