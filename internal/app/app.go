package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/goliatone/go-iam"
	"github.com/goliatone/go-iam/activitymap"
	"github.com/goliatone/go-iam/internal/database"
	"github.com/goliatone/go-iam/internal/logging"
	"github.com/goliatone/go-iam/mailer"
	"github.com/goliatone/go-iam/notification"
	"github.com/goliatone/go-iam/queue"
	"github.com/goliatone/go-iam/sessioncache"
	"github.com/goliatone/go-iam/token"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// App holds the wired process dependencies shared by the binaries
type App struct {
	Config     iam.Config
	Logger     *slog.Logger
	DB         *bun.DB
	Dispatcher *notification.Dispatcher
	Service    *iam.Service
	Registry   *prometheus.Registry

	redis *redis.Client
	queue *asynq.Client
}

// Option configures Bootstrap
type Option func(*options)

type options struct {
	mailer      mailer.Mailer
	keyring     token.Keyring
	synchronous bool
}

// WithMailer replaces the SMTP mailer
func WithMailer(m mailer.Mailer) Option {
	return func(o *options) {
		o.mailer = m
	}
}

// WithKeyring replaces the environment keyring
func WithKeyring(k token.Keyring) Option {
	return func(o *options) {
		o.keyring = k
	}
}

// Synchronous keeps notification triggers in process even when redis is configured
func Synchronous() Option {
	return func(o *options) {
		o.synchronous = true
	}
}

// LoadEnv loads .env into the environment. A missing file is not an error.
func LoadEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// Bootstrap opens the database, the optional redis cache and queue, the
// mailer and the dispatcher, and builds the auth service on top of them.
func Bootstrap(ctx context.Context, cfg iam.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logger := logging.New(cfg.LogFormat, cfg.LogLevel)
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.DB = db

	if cfg.AutoMigrate {
		if err := iam.Migrate(ctx, db.DB, cfg.DatabaseDriver); err != nil {
			a.Close()
			return nil, err
		}
	}

	m := o.mailer
	if m == nil {
		if m, err = newMailer(logger); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Dispatcher = notification.NewDispatcher(
		notification.NewPongoRendererFromDir(cfg.TemplatesDir),
		m,
		notification.WithLogger(logging.Adapt(logger, "notification")),
		notification.WithMetrics(notification.NewMetrics(a.Registry)),
	)
	if err := iam.RegisterDefaultNotifications(a.Dispatcher, cfg); err != nil {
		a.Close()
		return nil, err
	}

	var sessionOpts []iam.SessionsOption
	sessionOpts = append(sessionOpts, iam.WithSessionsLogger(logging.Adapt(logger, "sessions")))

	var notifier iam.Notifier = a.Dispatcher
	if cfg.RedisAddr != "" {
		client, err := sessioncache.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		sessionOpts = append(sessionOpts, iam.WithSessionCache(sessioncache.New(client)))

		if !o.synchronous {
			a.queue = asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
			notifier = queue.NewClient(a.queue,
				queue.WithRegistry(a.Dispatcher),
				queue.WithClientLogger(logging.Adapt(logger, "queue")),
			)
		}
	}

	keyring := o.keyring
	if keyring == nil {
		keyring = token.NewEnvKeyring()
	}

	repos := iam.NewRepositoryManager(db, sessionOpts...)
	if err := repos.Validate(); err != nil {
		a.Close()
		return nil, err
	}

	a.Service = iam.NewService(repos, token.NewCodec(keyring), notifier, cfg,
		iam.WithLogger(logging.Adapt(logger, "iam")),
		iam.WithActivitySink(activityLogger(logger)),
	)

	return a, nil
}

// Close releases everything Bootstrap opened
func (a *App) Close() error {
	var errs []error
	if a.queue != nil {
		errs = append(errs, a.queue.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func newMailer(logger *slog.Logger) (mailer.Mailer, error) {
	if os.Getenv("SMTP_URL") == "" {
		logger.Warn("SMTP_URL not set, emails are logged instead of sent")
		return logMailer(logger), nil
	}

	cfg, err := mailer.LoadConfig()
	if err != nil {
		return nil, err
	}
	return mailer.NewSMTP(cfg)
}

func logMailer(logger *slog.Logger) mailer.Mailer {
	return mailer.MailerFunc(func(ctx context.Context, subject, body string, to mailer.MailUser, from *mailer.MailUser) error {
		logger.InfoContext(ctx, "email",
			slog.String("to", to.String()),
			slog.String("subject", subject),
			slog.Int("body_bytes", len(body)),
		)
		return nil
	})
}

func activityLogger(logger *slog.Logger) iam.ActivitySink {
	return iam.ActivitySinkFunc(func(ctx context.Context, evt iam.ActivityEvent) error {
		rec := activitymap.Normalize(evt, activitymap.WithActorFallback("anonymous"))
		logger.LogAttrs(ctx, slog.LevelInfo, "activity", rec.Attrs()...)
		return nil
	})
}
