package iam

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-iam/token"
)

// Service is the auth orchestrator. It composes the user directory, the
// session store, the token codec and a notifier into the register, login,
// logout and verification flows.
type Service struct {
	users     Users
	sessions  Sessions
	usedLinks UsedLinks
	tx        TransactionManager
	codec     *token.Codec
	notifier  Notifier
	hasher    PasswordHasher
	states    UserStateMachine
	activity  ActivitySink
	logger    Logger
	cfg       Config
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithLogger sets the service logger
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActivitySink publishes login, logout and lifecycle events to sink
func WithActivitySink(sink ActivitySink) ServiceOption {
	return func(s *Service) {
		s.activity = normalizeActivitySink(sink)
	}
}

// WithPasswordHasher replaces the bcrypt hasher built from Config.PasswordCost
func WithPasswordHasher(h PasswordHasher) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithUserStateMachine replaces the default status state machine
func WithUserStateMachine(sm UserStateMachine) ServiceOption {
	return func(s *Service) {
		if sm != nil {
			s.states = sm
		}
	}
}

// WithClock injects a custom clock (useful for tests)
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the orchestrator
func NewService(repos RepositoryManager, codec *token.Codec, notifier Notifier, cfg Config, opts ...ServiceOption) *Service {
	s := &Service{
		users:     repos.Users(),
		sessions:  repos.Sessions(),
		usedLinks: repos.UsedLinks(),
		tx:        repos,
		codec:     codec,
		notifier:  notifier,
		hasher:    NewBcryptHasher(cfg.PasswordCost),
		activity:  noopActivitySink{},
		logger:    defLogger(),
		cfg:       cfg,
		now:       time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.states == nil {
		s.states = NewUserStateMachine(s.users,
			WithStateMachineActivitySink(s.activity),
			WithStateMachineLogger(s.logger),
			WithStateMachineClock(s.now),
		)
	}

	return s
}

// Config returns the service configuration
func (s *Service) Config() Config {
	return s.cfg
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OperationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

func (s *Service) requireMode(mode LoginMode) error {
	if s.cfg.LoginMode != mode {
		return ErrLoginModeDisabled
	}
	return nil
}

// createSession opens a session for user and signs a login bearer around it
func (s *Service) createSession(ctx context.Context, user *User) (*AuthBearer, error) {
	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, s.internal("create session", err)
	}

	sessionUser := newSessionUser(session, user)
	jwt, err := token.Sign(s.codec, sessionUser, durationSeconds(s.cfg.LoginDuration), s.cfg.JWTKey)
	if err != nil {
		if derr := s.sessions.Delete(ctx, sessionUser.SessionID); derr != nil {
			s.logger.Warn("discard unsigned session %s: %v", sessionUser.SessionID, derr)
		}
		return nil, s.signError("sign login bearer", err)
	}

	return &AuthBearer{
		Token: jwt,
		User:  &sessionUser,
	}, nil
}

// signError keeps the codec kinds callers can act on and masks a missing secret
func (s *Service) signError(op string, err error) error {
	if token.IsSecretNotConfigured(err) {
		return s.internal(op, err)
	}
	s.logger.Error("%s: %v", op, err)
	return err
}

func (s *Service) record(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{ID: event.UserID, Type: "user"}
	}
	if err := s.activity.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

// lookupError maps a directory miss to ErrNotFound and anything else to ErrInternal
func (s *Service) lookupError(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return s.internal(op, err)
}

func durationSeconds(d time.Duration) int64 {
	return int64(d / time.Second)
}
