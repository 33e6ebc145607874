package iam

import (
	"context"
	"time"

	"github.com/goliatone/go-iam/internal/logging"
	"github.com/goliatone/go-iam/notification"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Users is the user directory
type Users interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindActiveByEmail(ctx context.Context, email string) (*User, error)
	FindByPID(ctx context.Context, pid string) (*User, error)
	Create(ctx context.Context, input CreateUserInput) (*User, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) (*User, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus) (*User, error)
}

// Sessions is the session store
type Sessions interface {
	Create(ctx context.Context, userID uuid.UUID) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteAll(ctx context.Context, userID uuid.UUID) error
	DeleteAllTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]string, error)
	Exists(ctx context.Context, sessionID string) (bool, error)
	Evict(ctx context.Context, sessionIDs ...string)
}

// UsedLinks remembers consumed login links
type UsedLinks interface {
	Consume(ctx context.Context, id uuid.UUID, expiresAt time.Time) error
}

// SessionCache remembers live session ids so existence checks can skip
// the database. It only ever holds sessions known to exist.
type SessionCache interface {
	Add(ctx context.Context, sessionID string) error
	Contains(ctx context.Context, sessionID string) (bool, error)
	Remove(ctx context.Context, sessionIDs ...string) error
}

// Notifier triggers a registered notification. The dispatcher and the
// queue client both satisfy it.
type Notifier interface {
	Trigger(ctx context.Context, id string, settings notification.TriggerSettings) (bool, error)
}

// TransactionManager runs f inside a database transaction
type TransactionManager = repository.TransactionManager

var (
	_ Notifier = (*notification.Dispatcher)(nil)
	_ Logger   = (*logging.Adapter)(nil)
)

func defLogger() Logger {
	return logging.Default("iam")
}
