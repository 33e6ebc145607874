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

	"github.com/goliatone/go-iam"
	"github.com/goliatone/go-iam/internal/app"
	"github.com/goliatone/go-iam/internal/logging"
	"github.com/goliatone/go-iam/queue"
	"github.com/hibiken/asynq"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type workerConfig struct {
	Concurrency int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.LoadEnv(); err != nil {
		slog.Default().Error("load env", slog.Any("error", err))
		os.Exit(1)
	}

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Default().Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := iam.LoadConfig()
	if err != nil {
		return err
	}

	var wcfg workerConfig
	if err := envconfig.Process("", &wcfg); err != nil {
		return err
	}

	if cfg.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required to run the worker")
	}

	a, err := app.Bootstrap(ctx, cfg, app.Synchronous())
	if err != nil {
		return err
	}
	defer a.Close()

	if wcfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              wcfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error("metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	worker, err := queue.NewWorker(queue.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Concurrency: wcfg.Concurrency,
		Trigger:     a.Dispatcher,
		Logger:      logging.Adapt(a.Logger, "worker"),
	})
	if err != nil {
		return err
	}

	a.Logger.Info("worker started", slog.String("redis", cfg.RedisAddr), slog.Int("concurrency", wcfg.Concurrency))
	return worker.Run(ctx)
}
