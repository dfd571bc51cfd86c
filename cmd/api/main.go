// Package main is the entry point for the Subtrack API server.
//
// It loads configuration, connects to PostgreSQL, wires the domain services
// and HTTP handlers into the core chassis (middleware, routing, health
// checks), and serves until interrupted. Graceful shutdown is handled via
// OS signal interception (SIGINT, SIGTERM).
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

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/jackc/pgx/v5/pgxpool"

	"subtrack/internal/api/handlers"
	"subtrack/internal/auth"
	"subtrack/internal/billing"
	"subtrack/internal/config"
	"subtrack/internal/core"
	"subtrack/internal/db"
	"subtrack/internal/external"
	"subtrack/internal/metrics"
	"subtrack/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so main() can cleanly exit on error.
func run() error {
	// Secrets come from SSM outside local development; locally the .env file
	// and process environment are enough.
	var provider config.SecretProvider
	if os.Getenv("APP_ENV") != "local" {
		provider = config.NewSSMProvider(os.Getenv("AWS_REGION"))
	}

	cfg, err := config.LoadConfig(provider)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("subtrack API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database.
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}

	users := db.NewUserRepository(pool)
	sessions := db.NewSessionRepository(pool)
	profiles := db.NewProfileRepository(pool)
	subscriptions := db.NewSubscriptionRepository(pool)

	// Domain services.
	authSvc := auth.NewService(auth.ServiceConfig{
		Users:      users,
		Sessions:   sessions,
		SessionTTL: cfg.Auth.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     logger,
	})

	maintenance := scheduler.NewMaintenance(sessions, scheduler.DefaultPruneInterval, logger)
	go maintenance.Run(ctx)

	stripeSource := external.NewStripeSource(cfg.Billing, logger)
	checkout := billing.NewService(stripeSource, cfg.Billing, cfg.Server.BaseURL, logger)

	// HTTP chassis.
	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.Authenticator = authSvc
	srv.HealthProbes = []core.HealthProbe{db.Probe{Pool: pool}}
	srv.Closers = append(srv.Closers, poolCloser{pool})

	if cfg.Observability.EnableMetrics {
		collector, err := newMetricsCollector(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("creating metrics collector: %w", err)
		}
		srv.Metrics = collector
		srv.Closers = append(srv.Closers, collector)
	}

	// Handlers.
	authHandler := handlers.NewAuthHandler(authSvc, srv.Validator, logger)
	profileHandler := handlers.NewProfileHandler(profiles, srv.Validator, logger)
	subsHandler := handlers.NewSubscriptionsHandler(subscriptions, srv.Validator, logger)
	billingHandler := handlers.NewBillingHandler(checkout, logger)
	webhookHandler := handlers.NewStripeWebhookHandler(
		&external.StripeVerifier{},
		profiles,
		cfg.Billing,
		logger,
	)

	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		authHandler.RegisterRoutes,
		profileHandler.RegisterRoutes,
		subsHandler.RegisterRoutes,
		billingHandler.RegisterRoutes,
	)
	srv.WebhookRouteRegistrars = append(srv.WebhookRouteRegistrars,
		webhookHandler.RegisterRoutes,
	)

	srv.MountRoutes()

	return serveHTTP(ctx, srv, cfg, logger)
}

// serveHTTP runs the HTTP server until the context is cancelled or the
// listener fails, then shuts down gracefully.
func serveHTTP(ctx context.Context, srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
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

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newMetricsCollector builds the CloudWatch-backed request metrics collector.
func newMetricsCollector(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*metrics.CloudWatchCollector, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		// LocalStack support.
		if cfg.AWS.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
		}
	})

	return metrics.NewCloudWatchCollector(client, cfg.Observability.MetricNamespace, logger), nil
}

// poolCloser adapts the pgx pool's valueless Close to io.Closer for the
// server's shutdown sequence.
type poolCloser struct {
	pool *pgxpool.Pool
}

func (p poolCloser) Close() error {
	p.pool.Close()
	return nil
}

// newLogger creates a structured JSON logger at the configured level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
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
