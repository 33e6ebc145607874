package queue

import (
	"context"

	"github.com/goliatone/go-iam/internal/logging"
	"github.com/goliatone/go-iam/notification"
	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the queue needs
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Registry answers whether a notification id is registered
type Registry interface {
	Lookup(id string) (*notification.Config, bool)
}

// Client defers notification triggers to a worker. It has the same Trigger
// signature as notification.Dispatcher so either can back the auth service.
type Client struct {
	enqueuer Enqueuer
	registry Registry
	opts     []asynq.Option
	logger   Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithRegistry rejects unknown ids at enqueue time instead of in the worker
func WithRegistry(r Registry) ClientOption {
	return func(c *Client) {
		c.registry = r
	}
}

// WithTaskOptions sets the asynq options of every enqueued task
func WithTaskOptions(opts ...asynq.Option) ClientOption {
	return func(c *Client) {
		c.opts = append(c.opts, opts...)
	}
}

// WithClientLogger sets the client logger
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient returns a Client enqueuing through e
func NewClient(e Enqueuer, opts ...ClientOption) *Client {
	c := &Client{
		enqueuer: e,
		opts:     []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(5)},
		logger:   logging.Default("queue"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trigger enqueues the notification. It returns true once the queue
// accepted the task; delivery happens later in the worker.
func (c *Client) Trigger(ctx context.Context, id string, settings notification.TriggerSettings) (bool, error) {
	if c.registry != nil {
		if _, ok := c.registry.Lookup(id); !ok {
			return false, notification.ErrNotConfigured
		}
	}

	task, err := NewTriggerTask(id, settings, c.opts...)
	if err != nil {
		return false, err
	}

	info, err := c.enqueuer.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("enqueue notification %s: %v", id, err)
		return false, notification.DeliveryError(err.Error())
	}

	c.logger.Debug("enqueued notification %s as task %s", id, info.ID)
	return true, nil
}
