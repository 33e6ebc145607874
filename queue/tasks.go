package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-iam/internal/logging"
	"github.com/goliatone/go-iam/notification"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue notification triggers are enqueued on
	QueueDefault = "default"
	// TaskTypeTrigger is the task type of a deferred notification trigger
	TaskTypeTrigger = "notification:trigger"
)

// Logger is the printf style logger used by the queue
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TriggerPayload is the task body of TaskTypeTrigger
type TriggerPayload struct {
	ID       string                       `json:"id"`
	Settings notification.TriggerSettings `json:"settings"`
}

// NewTriggerTask builds a TaskTypeTrigger task
func NewTriggerTask(id string, settings notification.TriggerSettings, opts ...asynq.Option) (*asynq.Task, error) {
	data, err := json.Marshal(TriggerPayload{ID: id, Settings: settings})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeTrigger, data, opts...), nil
}

// Triggerer delivers a notification synchronously
type Triggerer interface {
	Trigger(ctx context.Context, id string, settings notification.TriggerSettings) (bool, error)
}

// Handler runs TaskTypeTrigger tasks against a Triggerer
type Handler struct {
	trigger Triggerer
	logger  Logger
}

var _ asynq.Handler = (*Handler)(nil)

// NewHandler returns a Handler delivering through t
func NewHandler(t Triggerer, logger Logger) *Handler {
	if logger == nil {
		logger = logging.Default("queue")
	}
	return &Handler{trigger: t, logger: logger}
}

// ProcessTask decodes the payload and triggers it. Failures that a retry
// cannot fix are returned wrapping asynq.SkipRetry.
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload TriggerPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("decode %s payload: %v", t.Type(), err)
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	sent, err := h.trigger.Trigger(ctx, payload.ID, payload.Settings)
	if err != nil {
		if permanent(err) {
			h.logger.Error("notification %s dropped: %v", payload.ID, err)
			return fmt.Errorf("trigger %s: %v: %w", payload.ID, err, asynq.SkipRetry)
		}
		h.logger.Warn("notification %s failed, will retry: %v", payload.ID, err)
		return err
	}

	h.logger.Debug("notification %s delivered=%t", payload.ID, sent)
	return nil
}

func permanent(err error) bool {
	return notification.IsNotConfigured(err) ||
		notification.IsRenderError(err) ||
		notification.IsRecipientMissing(err)
}
