package iam

import (
	"context"
	"errors"

	"github.com/goliatone/go-iam/token"
	"github.com/google/uuid"
)

// Register creates an active user and logs it in. An email already held by
// an active user returns ErrConflict, as does losing a concurrent race for
// the same email.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthBearer, error) {
	if err := input.validate(s.cfg.LoginMode); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.users.FindActiveByEmail(ctx, input.Email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, s.internal("register: lookup", err)
	}

	create := CreateUserInput{
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}

	if s.cfg.LoginMode == LoginModePassword {
		hash, err := s.hasher.HashPassword(input.Password)
		if err != nil {
			return nil, s.internal("register: hash password", err)
		}
		create.PasswordHash = hash
	}

	user, err := s.users.Create(ctx, create)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrConflict
		}
		return nil, s.internal("register: create user", err)
	}

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventUserRegistered,
		UserID:    user.PID.String(),
		ToStatus:  user.Status,
	})

	return s.createSession(ctx, user)
}

// Login authenticates with email and password. An unknown email and a wrong
// password both return ErrNotFound.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthBearer, error) {
	if err := s.requireMode(LoginModePassword); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, s.internal("login: lookup", err)
		}
		// keep the miss as slow as a mismatch
		_ = s.hasher.ComparePasswordAndHash(password, s.dummyPasswordHash())
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Actor:     ActorRef{Type: "anonymous"},
			Metadata:  map[string]any{"reason": "unknown email"},
		})
		return nil, ErrNotFound
	}

	if err := s.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			s.logger.Warn("login: compare password for %s: %v", user.PID, err)
		}
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			UserID:    user.PID.String(),
			Metadata:  map[string]any{"reason": "password mismatch"},
		})
		return nil, ErrNotFound
	}

	bearer, err := s.createSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    user.PID.String(),
		Metadata:  map[string]any{"method": string(LoginModePassword)},
	})

	return bearer, nil
}

// LoginWithToken exchanges a magic link token for a login bearer
func (s *Service) LoginWithToken(ctx context.Context, raw string) (*AuthBearer, error) {
	if err := s.requireMode(LoginModeMagicLink); err != nil {
		return nil, err
	}

	claims, err := token.Verify[LinkClaims](s.codec, raw, s.cfg.MagicLinkKey)
	if err != nil {
		s.recordLinkFailure(ctx, "invalid link token")
		return nil, s.tokenError("login with token: verify", err)
	}

	linkID, err := uuid.Parse(claims.ID)
	if err != nil || claims.Purpose != LinkPurposeLogin {
		s.recordLinkFailure(ctx, "not a login link")
		return nil, token.ErrVerification
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.FindByPID(ctx, claims.PID)
	if err != nil {
		return nil, s.lookupError("login with token: lookup", err)
	}

	if !user.IsActive() {
		return nil, ErrNotFound
	}

	if err := s.usedLinks.Consume(ctx, linkID, s.now().Add(s.cfg.MagicLinkDuration)); err != nil {
		if errors.Is(err, ErrConflict) {
			s.recordLinkFailure(ctx, "link already used")
			return nil, token.ErrVerification
		}
		return nil, s.internal("login with token: consume link", err)
	}

	bearer, err := s.createSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    user.PID.String(),
		Metadata:  map[string]any{"method": string(LoginModeMagicLink)},
	})

	return bearer, nil
}

// VerifyToken checks a login bearer and returns its SessionUser. By default
// only the signature and expiry are checked, so a bearer outlives a logout
// until it expires. With StrictSessions the session must also still exist.
func (s *Service) VerifyToken(ctx context.Context, raw string) (*SessionUser, error) {
	sessionUser, err := token.Verify[SessionUser](s.codec, raw, s.cfg.JWTKey)
	if err != nil {
		return nil, s.tokenError("verify token", err)
	}

	if !s.cfg.StrictSessions {
		return &sessionUser, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.sessions.Exists(ctx, sessionUser.SessionID)
	if err != nil {
		return nil, s.internal("verify token: session lookup", err)
	}

	if !exists {
		return nil, token.ErrVerification
	}

	return &sessionUser, nil
}

// Logout deletes the session embedded in the bearer
func (s *Service) Logout(ctx context.Context, sessionUser SessionUser) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.sessions.Delete(ctx, sessionUser.SessionID); err != nil {
		return s.internal("logout", err)
	}

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    sessionUser.PID,
		Metadata:  map[string]any{"session_id": sessionUser.SessionID},
	})

	return nil
}

// LogoutAll deletes every session of the bearer's user
func (s *Service) LogoutAll(ctx context.Context, sessionUser SessionUser) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.users.FindByPID(ctx, sessionUser.PID)
	if err != nil {
		return s.lookupError("logout all: lookup", err)
	}

	if err := s.sessions.DeleteAll(ctx, user.ID); err != nil {
		return s.internal("logout all", err)
	}

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLogoutAll,
		UserID:    sessionUser.PID,
	})

	return nil
}

func (s *Service) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.HashPassword("iam-dummy-password")
		if err != nil {
			s.logger.Warn("dummy password hash: %v", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *Service) recordLinkFailure(ctx context.Context, reason string) {
	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Actor:     ActorRef{Type: "anonymous"},
		Metadata:  map[string]any{"reason": reason},
	})
}
