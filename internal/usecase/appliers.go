// File: internal/usecase/appliers.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"marketplace-payments/internal/domain"
	"marketplace-payments/internal/domain/model"
	"marketplace-payments/internal/domain/ports/repository"
)

// applierFunc performs the domain-specific state change for one payment kind.
// It runs inside the finalize transaction; returning an error rolls back the
// status flip, leaving the payment pending and retryable.
type applierFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) (*model.ApplicationResult, error)

// entitlementAppliers holds the kind→applier table with its shared deps.
type entitlementAppliers struct {
	points   PointsUseCase
	boosts   repository.BoostRepository
	verifs   repository.VerificationRepository
	premium  repository.PremiumRepository
	posts    repository.PostRepository
	escorts  repository.EscortRepository
	agencies repository.AgencyRepository
	drafts   repository.ListingDraftRepository
	catalog  repository.CatalogRepository
	ceiling  int
}

func newEntitlementAppliers(
	points PointsUseCase,
	boosts repository.BoostRepository,
	verifs repository.VerificationRepository,
	premium repository.PremiumRepository,
	posts repository.PostRepository,
	escorts repository.EscortRepository,
	agencies repository.AgencyRepository,
	drafts repository.ListingDraftRepository,
	catalog repository.CatalogRepository,
	listingCeiling int,
) *entitlementAppliers {
	return &entitlementAppliers{
		points:   points,
		boosts:   boosts,
		verifs:   verifs,
		premium:  premium,
		posts:    posts,
		escorts:  escorts,
		agencies: agencies,
		drafts:   drafts,
		catalog:  catalog,
		ceiling:  listingCeiling,
	}
}

func (a *entitlementAppliers) applierFor(kind model.PaymentKind) (applierFunc, error) {
	switch kind {
	case model.PaymentKindPoints:
		return a.applyPoints, nil
	case model.PaymentKindBoost:
		return a.applyBoost, nil
	case model.PaymentKindVerification:
		return a.applyVerification, nil
	case model.PaymentKindPremium:
		return a.applyPremium, nil
	case model.PaymentKindExtraListing:
		return a.applyExtraListing, nil
	default:
		return nil, domain.ErrInvalidArgument
	}
}

func (a *entitlementAppliers) applyPoints(ctx context.Context, tx repository.Tx, p *model.Payment) (*model.ApplicationResult, error) {
	c := p.Context.Points
	if c == nil {
		return nil, domain.ErrInvalidArgument
	}
	pkg, err := a.catalog.PointPackage(ctx, c.PackageID)
	if err != nil {
		return nil, err
	}
	total := pkg.Points + pkg.Bonus
	entry, err := a.points.GrantTx(ctx, tx, c.AccountID, total, model.PointTxKindPurchase, &p.ID)
	if err != nil {
		return nil, err
	}
	return &model.ApplicationResult{
		Kind:          p.Kind,
		EntitlementID: entry.ID,
		PointsGranted: total,
		BalanceAfter:  entry.BalanceAfter,
	}, nil
}

func (a *entitlementAppliers) applyBoost(ctx context.Context, tx repository.Tx, p *model.Payment) (*model.ApplicationResult, error) {
	c := p.Context.Boost
	if c == nil {
		return nil, domain.ErrInvalidArgument
	}
	pricing, err := a.catalog.BoostPricing(ctx, c.PricingID)
	if err != nil {
		return nil, err
	}
	post, err := a.posts.FindByID(ctx, tx, c.PostID)
	if err != nil {
		return nil, err // target gone mid-flight aborts the finalize
	}

	now := time.Now()
	delta := pricing.Multiplier * post.Score
	boost := &model.Boost{
		ID:             uuid.NewString(),
		PostID:         post.ID,
		PricingID:      pricing.ID,
		Multiplier:     pricing.Multiplier,
		ScoreDelta:     delta,
		BaselineViews:  post.Views,
		BaselineClicks: post.Clicks,
		Featured:       pricing.Featured,
		ActivatedAt:    now,
		ExpiresAt:      now.Add(pricing.Duration),
	}
	if err := a.boosts.Save(ctx, tx, boost); err != nil {
		return nil, err
	}
	if err := a.posts.IncrementScore(ctx, tx, post.ID, delta); err != nil {
		return nil, err
	}
	if pricing.Featured {
		if err := a.posts.MarkFeatured(ctx, tx, post.ID, true); err != nil {
			return nil, err
		}
	}
	expires := boost.ExpiresAt
	return &model.ApplicationResult{
		Kind:          p.Kind,
		EntitlementID: boost.ID,
		PostID:        post.ID,
		ExpiresAt:     &expires,
	}, nil
}

func (a *entitlementAppliers) applyVerification(ctx context.Context, tx repository.Tx, p *model.Payment) (*model.ApplicationResult, error) {
	c := p.Context.Verification
	if c == nil {
		return nil, domain.ErrInvalidArgument
	}
	esc, err := a.escorts.FindByID(ctx, tx, c.EscortID)
	if err != nil {
		return nil, err
	}
	if !esc.Active || esc.AgencyID != c.AgencyID {
		return nil, domain.ErrNotAgencyMember
	}
	if esc.Verified {
		// An explicit error, not a silent double grant: the finalize aborts
		// and the payment stays visible for manual reconciliation.
		return nil, domain.ErrAlreadyVerified
	}
	pricing, err := a.catalog.VerificationPricing(ctx, c.PricingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	v := &model.Verification{
		ID:         uuid.NewString(),
		EscortID:   esc.ID,
		AgencyID:   c.AgencyID,
		PricingID:  pricing.ID,
		PaymentID:  p.ID,
		VerifiedAt: now,
	}
	if pricing.Duration != nil {
		exp := now.Add(*pricing.Duration)
		v.ExpiresAt = &exp
	}
	if err := a.verifs.Save(ctx, tx, v); err != nil {
		return nil, err
	}
	if err := a.escorts.SetVerified(ctx, tx, esc.ID, true); err != nil {
		return nil, err
	}
	if err := a.agencies.IncrementVerifiedCount(ctx, tx, c.AgencyID); err != nil {
		return nil, err
	}
	return &model.ApplicationResult{
		Kind:          p.Kind,
		EntitlementID: v.ID,
		ExpiresAt:     v.ExpiresAt,
		Permanent:     v.ExpiresAt == nil,
	}, nil
}

func (a *entitlementAppliers) applyPremium(ctx context.Context, tx repository.Tx, p *model.Payment) (*model.ApplicationResult, error) {
	c := p.Context.Premium
	if c == nil {
		return nil, domain.ErrInvalidArgument
	}
	pricing, err := a.catalog.PremiumPricing(ctx, model.PremiumTier(c.Tier), c.DurationDays)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var current time.Time
	state, err := a.premium.Find(ctx, tx, p.Payer.Type, p.Payer.ID)
	switch {
	case err == nil:
		current = state.ExpiresAt
	case errors.Is(err, domain.ErrNotFound):
		// first purchase
	default:
		return nil, err
	}

	expiry := model.ExtendedExpiry(current, now, time.Duration(pricing.DurationDays)*24*time.Hour)
	next := &model.PremiumState{
		SubjectType: p.Payer.Type,
		SubjectID:   p.Payer.ID,
		Tier:        pricing.Tier,
		Benefits:    model.BenefitsForTier(pricing.Tier),
		ExpiresAt:   expiry,
		UpdatedAt:   now,
	}
	if err := a.premium.Upsert(ctx, tx, next); err != nil {
		return nil, err
	}
	return &model.ApplicationResult{
		Kind:      p.Kind,
		ExpiresAt: &expiry,
	}, nil
}

func (a *entitlementAppliers) applyExtraListing(ctx context.Context, tx repository.Tx, p *model.Payment) (*model.ApplicationResult, error) {
	c := p.Context.ExtraListing
	if c == nil {
		return nil, domain.ErrInvalidArgument
	}
	draft, err := a.drafts.FindByID(ctx, tx, c.DraftID)
	if err != nil {
		return nil, err
	}
	// Re-check the ceiling at application time; the count may have grown
	// since the intent was opened.
	count, err := a.posts.CountActiveByOwner(ctx, tx, draft.Owner)
	if err != nil {
		return nil, err
	}
	if count >= a.ceiling {
		return nil, domain.ErrListingCeiling
	}
	consumed, err := a.drafts.MarkConsumed(ctx, tx, draft.ID)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return nil, domain.ErrAlreadyExists
	}
	post, err := a.posts.CreateFromDraft(ctx, tx, draft)
	if err != nil {
		return nil, err
	}
	return &model.ApplicationResult{
		Kind:          p.Kind,
		EntitlementID: post.ID,
		PostID:        post.ID,
	}, nil
}
