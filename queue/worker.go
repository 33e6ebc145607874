package queue

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
)

// WorkerConfig collects what the worker needs to start
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Trigger     Triggerer
	Logger      Logger
}

// Worker wraps the asynq server that runs notification triggers
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker builds a Worker with TaskTypeTrigger registered
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Trigger == nil {
		return nil, errors.New("queue: worker requires a trigger")
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})

	return &Worker{server: srv, mux: NewServeMux(NewHandler(cfg.Trigger, cfg.Logger))}, nil
}

// NewServeMux routes TaskTypeTrigger to h
func NewServeMux(h *Handler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TaskTypeTrigger, h)
	return mux
}

// Run processes tasks until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("queue: worker not configured")
	}

	if err := w.server.Start(w.mux); err != nil {
		return err
	}

	<-ctx.Done()
	w.server.Shutdown()
	return nil
}
