package iam_test

import (
	"context"

	"github.com/goliatone/go-iam"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type MockUsers struct {
	mock.Mock
}

var _ iam.Users = (*MockUsers)(nil)

func (m *MockUsers) FindByEmail(ctx context.Context, email string) (*iam.User, error) {
	args := m.Called(ctx, email)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) FindActiveByEmail(ctx context.Context, email string) (*iam.User, error) {
	args := m.Called(ctx, email)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) FindByPID(ctx context.Context, pid string) (*iam.User, error) {
	args := m.Called(ctx, pid)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, input iam.CreateUserInput) (*iam.User, error) {
	args := m.Called(ctx, input)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) UpdateStatus(ctx context.Context, id uuid.UUID, status iam.UserStatus) (*iam.User, error) {
	args := m.Called(ctx, id, status)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUsers) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status iam.UserStatus) (*iam.User, error) {
	args := m.Called(ctx, tx, id, status)
	return userArg(args, 0), args.Error(1)
}

func userArg(args mock.Arguments, i int) *iam.User {
	if u, ok := args.Get(i).(*iam.User); ok {
		return u
	}
	return nil
}
