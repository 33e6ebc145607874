package iam

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-iam/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "postgres unique", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "wrapped postgres unique", err: fmt.Errorf("insert user: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "postgres foreign key", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "sqlite unique", err: errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), want: true},
		{name: "other", err: errors.New("database is locked"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestIsUniqueViolationOnSQLiteInsert(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(database.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db.DB, database.DriverSQLite))

	insert := func() error {
		_, err := db.NewInsert().Model(&User{
			ID:        uuid.New(),
			PID:       uuid.New(),
			Email:     "jane@example.com",
			FirstName: "Jane",
			LastName:  "Doe",
			Status:    UserStatusActive,
		}).Exec(ctx)
		return err
	}

	require.NoError(t, insert())
	err = insert()
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}
