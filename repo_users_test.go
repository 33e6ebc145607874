package iam_test

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-iam"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestUsers_Lookups(t *testing.T) {
	db := newTestDB(t)
	repos := iam.NewRepositoryManager(db)
	ctx := context.Background()

	created := createUser(t, repos, "  Jane@Example.COM ")
	assert.Equal(t, "jane@example.com", created.Email)
	assert.NotEqual(t, uuid.Nil, created.PID)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, iam.UserStatusActive, created.Status)

	byEmail, err := repos.Users().FindByEmail(ctx, "JANE@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.PID, byEmail.PID)

	byPID, err := repos.Users().FindByPID(ctx, created.PID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, byPID.ID)

	_, err = repos.Users().FindByPID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, iam.ErrNotFound)

	_, err = repos.Users().FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, iam.ErrNotFound)

	_, err = repos.Users().Create(ctx, iam.CreateUserInput{Email: "jane@example.com", FirstName: "J", LastName: "D"})
	assert.ErrorIs(t, err, iam.ErrConflict)
}

func TestUsers_UpdateStatus(t *testing.T) {
	db := newTestDB(t)
	repos := iam.NewRepositoryManager(db)
	ctx := context.Background()

	created := createUser(t, repos, "jane@example.com")

	updated, err := repos.Users().UpdateStatus(ctx, created.ID, iam.UserStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, iam.UserStatusInactive, updated.Status)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	_, err = repos.Users().FindActiveByEmail(ctx, "jane@example.com")
	assert.ErrorIs(t, err, iam.ErrNotFound)

	_, err = repos.Users().UpdateStatus(ctx, uuid.New(), iam.UserStatusInactive)
	assert.ErrorIs(t, err, iam.ErrNotFound)
}

// concurrentInsert adds a row with the same email right after the
// directory's existence check, so the insert hits the unique index.
type concurrentInsert struct {
	once  sync.Once
	db    *sql.DB
	email string
	err   error
}

func (h *concurrentInsert) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *concurrentInsert) AfterQuery(ctx context.Context, evt *bun.QueryEvent) {
	if !strings.Contains(evt.Query, "EXISTS") {
		return
	}
	h.once.Do(func() {
		_, h.err = h.db.ExecContext(ctx,
			`INSERT INTO users (id, pid, email, first_name, last_name, status) VALUES (?, ?, ?, 'John', 'Doe', 'active')`,
			uuid.NewString(), uuid.NewString(), h.email,
		)
	})
}

func TestUsers_CreateUniqueViolationIsConflict(t *testing.T) {
	db := newTestDB(t)
	repos := iam.NewRepositoryManager(db)
	ctx := context.Background()

	hook := &concurrentInsert{db: db.DB, email: "jane@example.com"}
	db.AddQueryHook(hook)

	_, err := repos.Users().Create(ctx, iam.CreateUserInput{
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
	})
	require.NoError(t, hook.err)
	assert.ErrorIs(t, err, iam.ErrConflict)

	n, err := db.NewSelect().Model((*iam.User)(nil)).Where("email = ?", "jane@example.com").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
