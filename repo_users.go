package iam

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateUserInput is what the directory needs to insert a user
type CreateUserInput struct {
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
}

type users struct {
	repository.Repository[*User]
	db  *bun.DB
	now func() time.Time
}

var _ Users = (*users)(nil)

// NewUsersRepository returns the bun backed user directory
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.findOne(ctx, a.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.email = ?", normalizeEmail(email))
	})
}

func (a *users) FindActiveByEmail(ctx context.Context, email string) (*User, error) {
	return a.findOne(ctx, a.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("?TableAlias.email = ?", normalizeEmail(email)).
			Where("?TableAlias.status = ?", UserStatusActive)
	})
}

func (a *users) FindByPID(ctx context.Context, pid string) (*User, error) {
	id, err := uuid.Parse(strings.TrimSpace(pid))
	if err != nil {
		return nil, ErrNotFound
	}

	return a.findOne(ctx, a.db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.pid = ?", id)
	})
}

// Create checks the email is free and inserts a new active user. The check is
// an optimization: the unique index on email decides races, and a violation
// surfaces as ErrConflict.
func (a *users) Create(ctx context.Context, input CreateUserInput) (*User, error) {
	email := normalizeEmail(input.Email)

	exists, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
	if err != nil {
		return nil, err
	}

	if exists {
		return nil, ErrConflict
	}

	now := a.now().UTC()
	record := &User{
		ID:           uuid.New(),
		PID:          uuid.New(),
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: input.PasswordHash,
		Status:       UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := a.Repository.CreateTx(ctx, a.db, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if created == nil {
		return record, nil
	}
	return created, nil
}

func (a *users) UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) (*User, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status)
}

func (a *users) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus) (*User, error) {
	record, err := a.findOne(ctx, tx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.id = ?", id)
	})
	if err != nil {
		return nil, err
	}

	record.Status = status
	record.UpdatedAt = a.now().UTC()

	updated, err := a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if updated == nil {
		return record, nil
	}
	return updated, nil
}

func (a *users) findOne(ctx context.Context, db bun.IDB, where func(*bun.SelectQuery) *bun.SelectQuery) (*User, error) {
	record := &User{}
	err := where(db.NewSelect().Model(record)).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
