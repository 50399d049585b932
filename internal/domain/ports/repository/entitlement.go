package repository

import (
	"context"
	"time"

	"marketplace-payments/internal/domain/model"
)

type BoostRepository interface {
	Save(ctx context.Context, tx Tx, b *model.Boost) error
	FindActiveByPost(ctx context.Context, tx Tx, postID string, now time.Time) (*model.Boost, error)
}

type VerificationRepository interface {
	Save(ctx context.Context, tx Tx, v *model.Verification) error
	FindByEscort(ctx context.Context, tx Tx, escortID string) (*model.Verification, error)
}

type PremiumRepository interface {
	Find(ctx context.Context, tx Tx, subjectType model.PayerType, subjectID string) (*model.PremiumState, error)
	// Upsert creates or overwrites the single state row per subject.
	Upsert(ctx context.Context, tx Tx, s *model.PremiumState) error
}
