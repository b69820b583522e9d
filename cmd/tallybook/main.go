package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/tallybook/tallybook/internal/app"
	"github.com/tallybook/tallybook/internal/billing"
	"github.com/tallybook/tallybook/internal/observability"
	"github.com/tallybook/tallybook/internal/platform/cache"
	"github.com/tallybook/tallybook/internal/platform/db"
	"github.com/tallybook/tallybook/internal/reports"
	reporthttp "github.com/tallybook/tallybook/internal/reports/http"
	"github.com/tallybook/tallybook/internal/shared"
	"github.com/tallybook/tallybook/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	var redisClient *redis.Client
	if cfg.LockBackend == app.LockBackendRedis {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}
	locker := newLocker(cfg, redisClient)

	metrics := observability.NewMetrics()

	queue := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	billingRepo := billing.NewRepository(dbpool)
	billingService := billing.NewService(billingRepo, billing.ServiceConfig{
		Locker:   locker,
		Rate:     cfg.Rate(),
		Logger:   logger,
		Notifier: queue.Notifier(),
		Recorder: metrics,
	})
	billingHandler := billing.NewHandler(logger, billingService)

	reportSource := reports.NewPGSource(dbpool, billingRepo)
	reportService := reports.NewService(reportSource, cfg.Rate(), logger)
	reportHandler := reporthttp.NewHandler(logger, reportService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		BillingHandler: billingHandler,
		ReportsHandler: reportHandler,
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
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("lock_backend", cfg.LockBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// newLocker picks the per-invoice lock. The in-process mutex only serialises
// a single replica.
func newLocker(cfg *app.Config, client *redis.Client) shared.Locker {
	if cfg.LockBackend == app.LockBackendRedis && client != nil {
		return shared.NewRedisLocker(client, cfg.LockTTL)
	}
	return shared.NewKeyedMutex()
}
