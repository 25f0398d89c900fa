package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/arcadia-retail/arcadia-retail/internal/app"
	"github.com/arcadia-retail/arcadia-retail/internal/customers"
	"github.com/arcadia-retail/arcadia-retail/internal/notify"
	"github.com/arcadia-retail/arcadia-retail/internal/platform/cache"
	"github.com/arcadia-retail/arcadia-retail/internal/platform/db"
	"github.com/arcadia-retail/arcadia-retail/internal/reports"
	"github.com/arcadia-retail/arcadia-retail/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	reportsRepo := reports.NewRepository(pool)
	directory := customers.NewDirectory(pool)
	reportsService := reports.NewService(reportsRepo, directory, reportCache, logger)

	notifyCfg := &notify.Config{
		Provider:    cfg.NotifyProvider,
		SenderEmail: cfg.NotifySenderEmail,
		SenderName:  cfg.NotifySenderName,
		Timeout:     cfg.NotifyTimeout,
	}
	transport := notify.NewTransport(notifyCfg, logger)
	handlers := notify.NewHandlers(notifyCfg, transport, logger)

	warmupJob := jobs.NewReportWarmupJob(reportsService, logger, nil)
	warmupTask, err := jobs.NewReportWarmupTask(jobs.ReportWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: notify.TaskRepairCompleted, Handler: handlers.HandleRepairCompleted},
			{Type: notify.TaskCustomUpdate, Handler: handlers.HandleCustomUpdate},
			{Type: jobs.TaskReportWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 1 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
