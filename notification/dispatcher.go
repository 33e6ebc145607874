package notification

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-iam/internal/logging"
	"github.com/goliatone/go-iam/mailer"
)

// Logger is the printf style logger used by the dispatcher
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TriggerSettings carries the per trigger recipient and parameter overrides
type TriggerSettings struct {
	Email  *mailer.MailUser  `json:"email,omitempty"`
	UserID string            `json:"user_id,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// ErrRecipientMissing is returned when an email trigger has no recipient
var ErrRecipientMissing = goerrors.New("email notification requires a recipient", goerrors.CategoryBadInput).
	WithTextCode(TextCodeRecipientMissing).
	WithCode(goerrors.CodeBadRequest)

// Dispatcher holds registered descriptors and delivers triggers.
// Register everything before the dispatcher starts serving triggers.
type Dispatcher struct {
	mu          sync.RWMutex
	registry    map[string]*Config
	renderer    Renderer
	mailer      mailer.Mailer
	broadcaster Broadcaster
	sender      *mailer.MailUser
	logger      Logger
	metrics     *Metrics
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger
func WithLogger(logger Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics enables trigger counters
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithBroadcaster enables the websocket channel
func WithBroadcaster(b Broadcaster) Option {
	return func(d *Dispatcher) {
		d.broadcaster = b
	}
}

// WithSender overrides the mailer default sender for every email
func WithSender(from mailer.MailUser) Option {
	return func(d *Dispatcher) {
		d.sender = &from
	}
}

// NewDispatcher creates an empty registry using renderer and m
func NewDispatcher(renderer Renderer, m mailer.Mailer, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: make(map[string]*Config),
		renderer: renderer,
		mailer:   m,
		logger:   logging.Default("notifications"),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

// Register adds cfg to the registry. An existing descriptor with the same id is replaced.
func (d *Dispatcher) Register(cfg *Config) {
	if cfg == nil {
		return
	}

	d.mu.Lock()
	d.registry[cfg.ID()] = cfg
	d.mu.Unlock()

	d.logger.Info("registered notification %s (%s)", cfg.ID(), cfg.Channel())
}

// Lookup returns the descriptor registered under id
func (d *Dispatcher) Lookup(id string) (*Config, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cfg, ok := d.registry[id]
	return cfg, ok
}

// Trigger renders and delivers the notification registered under id.
// It returns true once the channel accepted the message.
func (d *Dispatcher) Trigger(ctx context.Context, id string, settings TriggerSettings) (bool, error) {
	cfg, ok := d.Lookup(id)
	if !ok {
		d.metrics.observe("", outcomeNotConfigured)
		return false, ErrNotConfigured
	}

	switch cfg.Channel() {
	case ChannelEmail:
		return d.handleEmail(ctx, cfg, settings)
	case ChannelWebsocket:
		return d.handleWebsocket(ctx, cfg, settings)
	default:
		d.metrics.observe(cfg.Channel(), outcomeNotConfigured)
		return false, ErrNotConfigured
	}
}

func (d *Dispatcher) handleEmail(ctx context.Context, cfg *Config, settings TriggerSettings) (bool, error) {
	if settings.Email == nil || settings.Email.Email == "" {
		return false, ErrRecipientMissing
	}

	params := mergeParams(cfg.params, settings.Params)

	body, err := d.render(cfg.RenderTemplate(), params)
	if err != nil {
		d.metrics.observe(cfg.Channel(), outcomeRenderError)
		return false, err
	}

	subject, err := d.render(cfg.SubjectTemplate(), params)
	if err != nil {
		d.metrics.observe(cfg.Channel(), outcomeRenderError)
		return false, err
	}

	if err := d.mailer.SendEmail(ctx, subject, WrapLayout(body), *settings.Email, d.sender); err != nil {
		d.logger.Error("notification %s: mailer failed: %v", cfg.ID(), err)
		d.metrics.observe(cfg.Channel(), outcomeDeliveryError)
		return false, MailerError(err.Error())
	}

	d.metrics.observe(cfg.Channel(), outcomeSent)
	return true, nil
}

func (d *Dispatcher) handleWebsocket(ctx context.Context, cfg *Config, settings TriggerSettings) (bool, error) {
	if d.broadcaster == nil {
		d.metrics.observe(cfg.Channel(), outcomeNotConfigured)
		return false, ErrNotConfigured
	}

	params := mergeParams(cfg.params, settings.Params)

	body, err := d.render(cfg.RenderTemplate(), params)
	if err != nil {
		d.metrics.observe(cfg.Channel(), outcomeRenderError)
		return false, err
	}

	var subject string
	if cfg.SubjectTemplate() != "" {
		if subject, err = d.render(cfg.SubjectTemplate(), params); err != nil {
			d.metrics.observe(cfg.Channel(), outcomeRenderError)
			return false, err
		}
	}

	msg := Message{
		ID:       cfg.ID(),
		Category: cfg.Category(),
		Subject:  subject,
		Body:     body,
	}

	if err := d.broadcaster.Broadcast(ctx, settings.UserID, msg); err != nil {
		d.logger.Error("notification %s: broadcast failed: %v", cfg.ID(), err)
		d.metrics.observe(cfg.Channel(), outcomeDeliveryError)
		return false, DeliveryError(err.Error())
	}

	d.metrics.observe(cfg.Channel(), outcomeSent)
	return true, nil
}

func (d *Dispatcher) render(path string, params map[string]string) (string, error) {
	out, err := d.renderer.Render(path, params)
	if err != nil {
		d.logger.Error("render %s: %v", path, err)
		return "", renderError(path, err)
	}
	return out, nil
}
