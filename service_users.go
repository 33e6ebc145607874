package iam

import (
	"context"

	"github.com/uptrace/bun"
)

// GetUser resolves the bearer's user. The password hash is always cleared.
func (s *Service) GetUser(ctx context.Context, sessionUser SessionUser) (*User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.FindByPID(ctx, sessionUser.PID)
	if err != nil {
		return nil, s.lookupError("get user", err)
	}

	return user.Sanitized(), nil
}

// CloseAccount marks the user inactive and deletes all of its sessions in
// one transaction. Either both happen or neither does.
func (s *Service) CloseAccount(ctx context.Context, sessionUser SessionUser) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.FindByPID(ctx, sessionUser.PID)
	if err != nil {
		return s.lookupError("close account: lookup", err)
	}

	actor := ActorRef{ID: sessionUser.PID, Type: "user"}
	var revoked []string

	err = s.tx.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.states.Transition(ctx, actor, user, UserStatusInactive,
			WithTransitionTx(tx),
			WithTransitionReason("account closed"),
		); err != nil {
			return err
		}

		ids, err := s.sessions.DeleteAllTx(ctx, tx, user.ID)
		if err != nil {
			return err
		}
		revoked = ids
		return nil
	})
	if err != nil {
		return s.internal("close account", err)
	}

	s.sessions.Evict(ctx, revoked...)

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventAccountClosed,
		Actor:     actor,
		UserID:    sessionUser.PID,
		ToStatus:  UserStatusInactive,
		Metadata:  map[string]any{"sessions_revoked": len(revoked)},
	})

	return nil
}
