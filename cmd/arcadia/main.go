package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/arcadia-retail/arcadia-retail/internal/app"
	"github.com/arcadia-retail/arcadia-retail/internal/auth"
	"github.com/arcadia-retail/arcadia-retail/internal/customers"
	"github.com/arcadia-retail/arcadia-retail/internal/identifier"
	"github.com/arcadia-retail/arcadia-retail/internal/inventory"
	"github.com/arcadia-retail/arcadia-retail/internal/notify"
	"github.com/arcadia-retail/arcadia-retail/internal/observability"
	"github.com/arcadia-retail/arcadia-retail/internal/platform/cache"
	"github.com/arcadia-retail/arcadia-retail/internal/platform/db"
	"github.com/arcadia-retail/arcadia-retail/internal/repairs"
	"github.com/arcadia-retail/arcadia-retail/internal/reports"
	"github.com/arcadia-retail/arcadia-retail/internal/sales"
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

	metrics := observability.NewMetrics()

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	if err := reportCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	notifyCfg := &notify.Config{
		Provider:    cfg.NotifyProvider,
		SenderEmail: cfg.NotifySenderEmail,
		SenderName:  cfg.NotifySenderName,
		Timeout:     cfg.NotifyTimeout,
	}
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()
	dispatcher := notify.NewQueueDispatcher(asynqClient, notifyCfg, logger, metrics)

	inventoryRepo := inventory.NewRepository(pool)

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, inventoryRepo, reportCache, logger)
	salesHandler := sales.NewHandler(logger, salesService)

	directory := customers.NewDirectory(pool)
	repairsRepo := repairs.NewRepository(pool)
	tickets := identifier.NewGenerator(repairsRepo)
	repairsService := repairs.NewService(repairsRepo, customers.NewRepairDirectory(directory), tickets, dispatcher, reportCache, logger)
	repairsHandler := repairs.NewHandler(logger, repairsService)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo, directory, reportCache, logger)
	reportsHandler := reports.NewHandler(logger, reportsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthMiddleware: auth.Middleware(auth.NewJWTVerifier(cfg.AuthSecret), logger),
		SalesHandler:   salesHandler,
		RepairsHandler: repairsHandler,
		ReportsHandler: reportsHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
