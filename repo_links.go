package iam

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type usedLinks struct {
	repository.Repository[*UsedLink]
	db  *bun.DB
	now func() time.Time
}

var _ UsedLinks = (*usedLinks)(nil)

// NewUsedLinksRepository returns the bun backed record of consumed links
func NewUsedLinksRepository(db *bun.DB) UsedLinks {
	repo := repository.NewRepository[*UsedLink](db, repository.ModelHandlers[*UsedLink]{
		NewRecord: func() *UsedLink { return &UsedLink{} },
		GetID: func(r *UsedLink) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *UsedLink, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &usedLinks{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
}

// Consume records id as used. A link consumed before returns ErrConflict.
// Records past their expiry are pruned on the way.
func (l *usedLinks) Consume(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	now := l.now().UTC()

	if _, err := l.db.NewDelete().
		Model((*UsedLink)(nil)).
		Where("expires_at < ?", now).
		Exec(ctx); err != nil {
		return err
	}

	_, err := l.Repository.CreateTx(ctx, l.db, &UsedLink{
		ID:        id,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	return nil
}
