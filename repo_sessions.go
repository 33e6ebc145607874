package iam

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type sessions struct {
	repository.Repository[*Session]
	db     *bun.DB
	cache  SessionCache
	logger Logger
	now    func() time.Time
}

var _ Sessions = (*sessions)(nil)

// SessionsOption configures the session store
type SessionsOption func(*sessions)

// WithSessionCache puts a cache in front of existence checks
func WithSessionCache(cache SessionCache) SessionsOption {
	return func(s *sessions) {
		s.cache = cache
	}
}

// WithSessionsLogger sets the logger used for cache failures
func WithSessionsLogger(logger Logger) SessionsOption {
	return func(s *sessions) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSessionsRepository returns the bun backed session store
func NewSessionsRepository(db *bun.DB, opts ...SessionsOption) Sessions {
	repo := repository.NewRepository[*Session](db, repository.ModelHandlers[*Session]{
		NewRecord: func() *Session { return &Session{} },
		GetID: func(r *Session) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Session, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "session_id"
		},
	})

	s := &sessions{
		Repository: repo,
		db:         db,
		logger:     defLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *sessions) Create(ctx context.Context, userID uuid.UUID) (*Session, error) {
	record := &Session{
		ID:        uuid.New(),
		SessionID: uuid.New(),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}

	created, err := s.Repository.CreateTx(ctx, s.db, record)
	if err != nil {
		return nil, err
	}
	if created != nil {
		record = created
	}

	if s.cache != nil {
		if err := s.cache.Add(ctx, record.SessionID.String()); err != nil {
			s.logger.Warn("session cache add: %v", err)
		}
	}

	return record, nil
}

// Delete removes one session. Deleting a missing session is not an error.
func (s *sessions) Delete(ctx context.Context, sessionID string) error {
	id, err := uuid.Parse(strings.TrimSpace(sessionID))
	if err != nil {
		return nil
	}

	if _, err := s.db.NewDelete().
		Model((*Session)(nil)).
		Where("session_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}

	s.Evict(ctx, id.String())
	return nil
}

func (s *sessions) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	ids, err := s.DeleteAllTx(ctx, s.db, userID)
	if err != nil {
		return err
	}
	s.Evict(ctx, ids...)
	return nil
}

// DeleteAllTx deletes every session of userID and returns the deleted ids.
// The cache is left alone so callers can evict after commit.
func (s *sessions) DeleteAllTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) ([]string, error) {
	var ids []string
	if err := tx.NewSelect().
		Model((*Session)(nil)).
		Column("session_id").
		Where("user_id = ?", userID).
		Scan(ctx, &ids); err != nil {
		return nil, err
	}

	if _, err := tx.NewDelete().
		Model((*Session)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx); err != nil {
		return nil, err
	}

	return ids, nil
}

func (s *sessions) Exists(ctx context.Context, sessionID string) (bool, error) {
	id, err := uuid.Parse(strings.TrimSpace(sessionID))
	if err != nil {
		return false, nil
	}

	if s.cache != nil {
		hit, err := s.cache.Contains(ctx, id.String())
		if err != nil {
			s.logger.Warn("session cache lookup: %v", err)
		} else if hit {
			return true, nil
		}
	}

	exists, err := s.db.NewSelect().
		Model((*Session)(nil)).
		Where("session_id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, err
	}

	if exists && s.cache != nil {
		if err := s.cache.Add(ctx, id.String()); err != nil {
			s.logger.Warn("session cache add: %v", err)
		}
	}

	return exists, nil
}

// Evict drops ids from the cache. Failures are logged.
func (s *sessions) Evict(ctx context.Context, sessionIDs ...string) {
	if s.cache == nil || len(sessionIDs) == 0 {
		return
	}
	if err := s.cache.Remove(ctx, sessionIDs...); err != nil {
		s.logger.Warn("session cache remove: %v", err)
	}
}
