package iam_test

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-iam"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestUserStateMachineDeactivates(t *testing.T) {
	repo := &MockUsers{}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	user := &iam.User{
		ID:     uuid.New(),
		PID:    uuid.New(),
		Status: iam.UserStatusActive,
	}

	repo.On("UpdateStatus", mock.Anything, user.ID, iam.UserStatusInactive).
		Return(&iam.User{ID: user.ID, PID: user.PID, Status: iam.UserStatusInactive, UpdatedAt: now}, nil).Once()

	sink := &capturingSink{}
	sm := iam.NewUserStateMachine(repo,
		iam.WithStateMachineClock(func() time.Time { return now }),
		iam.WithStateMachineActivitySink(sink),
	)

	result, err := sm.Transition(context.Background(), iam.ActorRef{ID: "admin", Type: "user"}, user, iam.UserStatusInactive,
		iam.WithTransitionReason("requested"),
	)
	require.NoError(t, err)
	assert.False(t, result.IsActive())
	assert.Equal(t, now, result.UpdatedAt)
	repo.AssertExpectations(t)

	require.Len(t, sink.events, 1)
	evt := sink.events[0]
	assert.Equal(t, iam.ActivityEventUserStatusChanged, evt.EventType)
	assert.Equal(t, user.PID.String(), evt.UserID)
	assert.Equal(t, iam.UserStatusActive, evt.FromStatus)
	assert.Equal(t, iam.UserStatusInactive, evt.ToStatus)
	assert.Equal(t, now, evt.OccurredAt)
	assert.Equal(t, "requested", evt.Metadata["reason"])
}

func TestUserStateMachineRejectsInvalidTransition(t *testing.T) {
	repo := &MockUsers{}
	user := &iam.User{ID: uuid.New(), Status: iam.UserStatusActive}

	sm := iam.NewUserStateMachine(repo)

	_, err := sm.Transition(context.Background(), iam.ActorRef{}, user, iam.UserStatus("archived"))
	require.Error(t, err)
	assert.True(t, iam.IsInvalidTransition(err))
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)

	_, err = sm.Transition(context.Background(), iam.ActorRef{}, nil, iam.UserStatusInactive)
	assert.True(t, iam.IsInvalidTransition(err))

	_, err = sm.Transition(context.Background(), iam.ActorRef{}, user, "")
	assert.True(t, iam.IsInvalidTransition(err))
}

func TestUserStateMachineInvalidTransitionKeepsSentinelClean(t *testing.T) {
	sm := iam.NewUserStateMachine(&MockUsers{})
	user := &iam.User{ID: uuid.New(), Status: iam.UserStatusActive}

	_, err := sm.Transition(context.Background(), iam.ActorRef{}, user, iam.UserStatus("archived"))
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.NotEmpty(t, richErr.Metadata)
	assert.Empty(t, iam.ErrInvalidTransition.Metadata)

	assert.False(t, iam.IsInvalidTransition(iam.ErrNotFound))
	assert.False(t, iam.IsInvalidTransition(nil))
}

func TestUserStateMachineSameStatusIsNoop(t *testing.T) {
	repo := &MockUsers{}
	user := &iam.User{ID: uuid.New(), Status: iam.UserStatusActive}

	sm := iam.NewUserStateMachine(repo)

	result, err := sm.Transition(context.Background(), iam.ActorRef{}, user, iam.UserStatusActive)
	require.NoError(t, err)
	assert.Same(t, user, result)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserStateMachineDefaultsEmptyStatus(t *testing.T) {
	repo := &MockUsers{}
	user := &iam.User{ID: uuid.New()}

	repo.On("UpdateStatus", mock.Anything, user.ID, iam.UserStatusInactive).
		Return(&iam.User{ID: user.ID, Status: iam.UserStatusInactive}, nil).Once()

	sm := iam.NewUserStateMachine(repo)

	result, err := sm.Transition(context.Background(), iam.ActorRef{}, user, iam.UserStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, iam.UserStatusInactive, result.Status)
	repo.AssertExpectations(t)
}

func TestUserStateMachineHooks(t *testing.T) {
	repo := &MockUsers{}
	user := &iam.User{ID: uuid.New(), Status: iam.UserStatusInactive}

	repo.On("UpdateStatus", mock.Anything, user.ID, iam.UserStatusActive).
		Return(&iam.User{ID: user.ID, Status: iam.UserStatusActive}, nil).Once()

	var calls []string
	sm := iam.NewUserStateMachine(repo)

	_, err := sm.Transition(context.Background(), iam.ActorRef{}, user, iam.UserStatusActive,
		iam.WithTransitionReason("reopened"),
		iam.WithBeforeTransitionHook(func(ctx context.Context, tc iam.TransitionContext) error {
			calls = append(calls, "before:"+string(tc.From)+"->"+string(tc.To)+":"+tc.Reason)
			return nil
		}),
		iam.WithAfterTransitionHook(func(ctx context.Context, tc iam.TransitionContext) error {
			calls = append(calls, "after")
			return nil
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"before:inactive->active:reopened", "after"}, calls)
	repo.AssertExpectations(t)
}

func TestUserStateMachineBeforeHookAborts(t *testing.T) {
	repo := &MockUsers{}
	user := &iam.User{ID: uuid.New(), Status: iam.UserStatusActive}
	blocked := errors.New("blocked")

	sm := iam.NewUserStateMachine(repo)

	_, err := sm.Transition(context.Background(), iam.ActorRef{}, user, iam.UserStatusInactive,
		iam.WithBeforeTransitionHook(func(ctx context.Context, tc iam.TransitionContext) error {
			return blocked
		}),
	)
	require.ErrorIs(t, err, blocked)
	assert.Equal(t, iam.UserStatusActive, user.Status)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserStateMachineUsesTransaction(t *testing.T) {
	db := newTestDB(t)
	repos := iam.NewRepositoryManager(db)
	ctx := context.Background()

	user := createUser(t, repos, "jane@example.com")
	sm := iam.NewUserStateMachine(repos.Users())

	rollback := errors.New("rollback")
	err := repos.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		updated, err := sm.Transition(ctx, iam.ActorRef{}, user, iam.UserStatusInactive, iam.WithTransitionTx(tx))
		require.NoError(t, err)
		assert.Equal(t, iam.UserStatusInactive, updated.Status)
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	stored, err := repos.Users().FindByPID(ctx, user.PID.String())
	require.NoError(t, err)
	assert.Equal(t, iam.UserStatusActive, stored.Status)
}
