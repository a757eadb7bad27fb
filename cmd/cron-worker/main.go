// Command cron-worker runs the periodic dispatch jobs. Every replica ticks,
// but only the holder of the Redis leader lock executes a cycle.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/tms-backend/internal/assignment"
	"github.com/angelmondragon/tms-backend/internal/cron"
	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/angelmondragon/tms-backend/pkg/metrics"
	"github.com/angelmondragon/tms-backend/pkg/migrate"
	"github.com/angelmondragon/tms-backend/pkg/outbox"
	"github.com/angelmondragon/tms-backend/pkg/redis"
	"github.com/angelmondragon/tms-backend/pkg/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

const serviceKind = "cron-worker"

func main() {
	bootLog := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		bootLog.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg := logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		stop()
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.Service.Kind, cfg.App.Env, logg)
	if err != nil {
		return fmt.Errorf("start tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeQuietly(logg, "database", dbClient.Close)

	if err := migrate.AutoRun(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer closeQuietly(logg, "redis", redisClient.Close)

	reg := metrics.NewRegistry()
	jobs, err := buildJobs(cfg, logg, dbClient, reg)
	if err != nil {
		return err
	}

	owner := workerID(cfg.Service)
	lock, err := cron.NewRedisLock(redisClient, cron.LockParams{
		Key:   redisClient.LockKey(serviceKind),
		Owner: owner,
		TTL:   cfg.Dispatch.AutoAssignLockTTL,
	})
	if err != nil {
		return fmt.Errorf("cron lock: %w", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  metrics.NewCronMetrics(reg),
		Interval: cfg.Dispatch.AutoAssignInterval,
	})
	if err != nil {
		return fmt.Errorf("create cron service: %w", err)
	}

	go func() {
		if err := metrics.Serve(ctx, cfg.Service.MetricsAddr, reg, logg); err != nil {
			logg.Error(ctx, "metrics listener stopped", err)
		}
	}()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"workerId":    owner,
		"interval":    cfg.Dispatch.AutoAssignInterval.String(),
	})
	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}

// buildJobs registers auto-assignment first so a slow retention sweep never
// delays dispatch within a cycle.
func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, reg prometheus.Registerer) (*cron.Registry, error) {
	permission, err := enums.ParsePermission(cfg.Dispatch.EligibilityPermission)
	if err != nil {
		return nil, fmt.Errorf("dispatch eligibility permission: %w", err)
	}

	conn := dbClient.DB()
	assigner, err := assignment.NewService(assignment.ServiceParams{
		Repo:          assignment.NewRepository(conn),
		Tx:            dbClient,
		Outbox:        outbox.NewEmitter(outbox.NewRepository(conn), logg),
		Logger:        logg,
		Metrics:       metrics.NewDispatchMetrics(reg),
		MaxActiveJobs: cfg.Dispatch.MaxActiveJobs,
		Permission:    permission,
	})
	if err != nil {
		return nil, fmt.Errorf("create assignment service: %w", err)
	}

	autoAssign, err := cron.NewAutoAssignJob(cron.AutoAssignJobParams{Logger: logg, Runner: assigner})
	if err != nil {
		return nil, fmt.Errorf("create auto-assign job: %w", err)
	}
	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:      logg,
		DB:          dbClient,
		Events:      outbox.NewRepository(conn),
		DeadLetters: outbox.NewDLQRepository(conn),
	})
	if err != nil {
		return nil, fmt.Errorf("create outbox retention job: %w", err)
	}

	jobs, err := cron.NewRegistry(autoAssign, retention)
	if err != nil {
		return nil, fmt.Errorf("register cron jobs: %w", err)
	}
	return jobs, nil
}

func workerID(cfg config.ServiceConfig) string {
	if cfg.WorkerID != "" {
		return cfg.WorkerID
	}
	if host, err := os.Hostname(); err == nil {
		return host
	}
	return serviceKind
}

func closeQuietly(logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "error closing "+name, err)
	}
}
