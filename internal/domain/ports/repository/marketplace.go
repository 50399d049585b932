package repository

import (
	"context"

	"marketplace-payments/internal/domain/model"
)

// PostRepository is the payment core's narrow view of the post service: read
// for eligibility and baseline capture, score/featured mutations that boosts
// own, and draft materialization for extra listings.
type PostRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Post, error)
	IncrementScore(ctx context.Context, tx Tx, id string, delta float64) error
	MarkFeatured(ctx context.Context, tx Tx, id string, featured bool) error
	CountActiveByOwner(ctx context.Context, tx Tx, owner model.PayerRef) (int, error)
	CreateFromDraft(ctx context.Context, tx Tx, draft *model.ListingDraft) (*model.Post, error)
}

type EscortRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Escort, error)
	SetVerified(ctx context.Context, tx Tx, id string, verified bool) error
}

type AgencyRepository interface {
	IncrementVerifiedCount(ctx context.Context, tx Tx, id string) error
}

type ListingDraftRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.ListingDraft, error)
	// MarkConsumed flips the draft exactly once; a second call reports false.
	MarkConsumed(ctx context.Context, tx Tx, id string) (bool, error)
}
