package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/tms-backend/api/routes"
	"github.com/angelmondragon/tms-backend/internal/auth"
	"github.com/angelmondragon/tms-backend/internal/jobs"
	"github.com/angelmondragon/tms-backend/internal/plans"
	"github.com/angelmondragon/tms-backend/internal/resources"
	"github.com/angelmondragon/tms-backend/internal/users"
	"github.com/angelmondragon/tms-backend/pkg/auth/session"
	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/angelmondragon/tms-backend/pkg/metrics"
	"github.com/angelmondragon/tms-backend/pkg/migrate"
	"github.com/angelmondragon/tms-backend/pkg/outbox"
	"github.com/angelmondragon/tms-backend/pkg/redis"
	"github.com/angelmondragon/tms-backend/pkg/telemetry"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.Service.Kind, cfg.App.Env, logg)
	if err != nil {
		logg.Error(ctx, "failed to set up tracing", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.AutoRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	outboxService := outbox.NewEmitter(outbox.NewRepository(conn), logg)
	userRepo := users.NewRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Tx:             dbClient,
		Outbox:         outboxService,
		JWTConfig:      cfg.JWT,
		Passwords:      cfg.Password,
		AuthCodeTTL:    cfg.Dispatch.AuthCodeTTL,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	planService, err := plans.NewService(plans.ServiceParams{
		Repo:   plans.NewRepository(conn),
		Tx:     dbClient,
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create plan service", err)
		os.Exit(1)
	}

	jobService, err := jobs.NewService(jobs.ServiceParams{
		Repo:   jobs.NewRepository(conn),
		Tx:     dbClient,
		Outbox: outboxService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create job service", err)
		os.Exit(1)
	}

	registry, err := resources.NewRegistry(conn, dbClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to create resource registry", err)
		os.Exit(1)
	}

	userService, err := users.NewService(users.ServiceParams{
		Repo:      userRepo,
		Tx:        dbClient,
		Passwords: cfg.Password,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create user service", err)
		os.Exit(1)
	}

	metricsRegistry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(metricsRegistry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			httpMetrics,
			metrics.Handler(metricsRegistry),
			authService,
			planService,
			jobService,
			registry,
			userService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
	logg.Info(ctx, "api server stopped")
}
