// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"marketplace-payments/internal/domain"
	"marketplace-payments/internal/domain/model"
	"marketplace-payments/internal/domain/ports/adapter"
	"marketplace-payments/internal/domain/ports/repository"
	"marketplace-payments/internal/infra/logging"
	"marketplace-payments/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// IntentRequest carries the kind-specific parameters of an intent call.
// Only the fields the requested kind needs are read.
type IntentRequest struct {
	PackageID    string `json:"package_id,omitempty"`    // points
	PostID       string `json:"post_id,omitempty"`       // boost
	PricingID    string `json:"pricing_id,omitempty"`    // boost, verification
	EscortID     string `json:"escort_id,omitempty"`     // verification
	Tier         string `json:"tier,omitempty"`          // premium
	DurationDays int    `json:"duration_days,omitempty"` // premium
	DraftID      string `json:"draft_id,omitempty"`      // extra listing
}

type IntentResponse struct {
	PaymentID    string `json:"payment_id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

type PaymentUseCase interface {
	// CreateIntent validates eligibility, prices the purchase, opens a
	// processor intent and persists the pending payment.
	CreateIntent(ctx context.Context, payer model.PayerRef, kind model.PaymentKind, req IntentRequest) (*IntentResponse, error)
	// Confirm is the user-driven finalize trigger. Replaying it on a
	// completed payment returns the recorded result, not an error.
	Confirm(ctx context.Context, paymentID string, caller model.PayerRef) (*model.ApplicationResult, error)
	// HandleProcessorEvent is the webhook-driven finalize trigger; it shares
	// Confirm's atomic guard so whichever path runs first wins.
	HandleProcessorEvent(ctx context.Context, ev *adapter.ProcessorEvent) (*model.ApplicationResult, error)
	// Reverify re-checks one pending payment against the processor; used by
	// the reconciler for deliveries that never arrived.
	Reverify(ctx context.Context, paymentID string) (*model.ApplicationResult, error)
	// Expire cancels a payment still pending past its TTL.
	Expire(ctx context.Context, paymentID string) (bool, error)
}

type paymentUC struct {
	payments  repository.PaymentRepository
	catalog   repository.CatalogRepository
	posts     repository.PostRepository
	escorts   repository.EscortRepository
	boosts    repository.BoostRepository
	drafts    repository.ListingDraftRepository
	processor adapter.PaymentProcessor
	appliers  *entitlementAppliers
	tm        repository.TransactionManager
	currency  string
	ceiling   int
	log       *zerolog.Logger
}

type PaymentUseCaseDeps struct {
	Payments  repository.PaymentRepository
	Points    PointsUseCase
	Catalog   repository.CatalogRepository
	Posts     repository.PostRepository
	Escorts   repository.EscortRepository
	Agencies  repository.AgencyRepository
	Boosts    repository.BoostRepository
	Verifs    repository.VerificationRepository
	Premium   repository.PremiumRepository
	Drafts    repository.ListingDraftRepository
	Processor adapter.PaymentProcessor
	TxManager repository.TransactionManager
	Currency  string
	Ceiling   int
	Logger    *zerolog.Logger
}

func NewPaymentUseCase(d PaymentUseCaseDeps) *paymentUC {
	appliers := newEntitlementAppliers(
		d.Points, d.Boosts, d.Verifs, d.Premium,
		d.Posts, d.Escorts, d.Agencies, d.Drafts,
		d.Catalog, d.Ceiling,
	)
	return &paymentUC{
		payments:  d.Payments,
		catalog:   d.Catalog,
		posts:     d.Posts,
		escorts:   d.Escorts,
		boosts:    d.Boosts,
		drafts:    d.Drafts,
		processor: d.Processor,
		appliers:  appliers,
		tm:        d.TxManager,
		currency:  d.Currency,
		ceiling:   d.Ceiling,
		log:       d.Logger,
	}
}

func (u *paymentUC) CreateIntent(ctx context.Context, payer model.PayerRef, kind model.PaymentKind, req IntentRequest) (*IntentResponse, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.CreateIntent")()
	if err := payer.Validate(); err != nil {
		return nil, err
	}

	priced, err := u.priceAndCheck(ctx, payer, kind, req)
	if err != nil {
		return nil, err
	}

	// The processor call happens outside any database transaction; holding
	// row locks across network latency is never acceptable.
	intent, err := u.processor.CreateIntent(ctx, priced.amount, u.currency, map[string]string{
		"kind":       string(kind),
		"payer_type": string(payer.Type),
		"payer_id":   payer.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("create processor intent: %w", err)
	}

	now := time.Now()
	p := &model.Payment{
		ID:               uuid.NewString(),
		Payer:            payer,
		Kind:             kind,
		Amount:           priced.amount,
		Currency:         u.currency,
		ExternalIntentID: intent.ID,
		Status:           model.PaymentStatusPending,
		Context:          priced.context,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		// The orphaned processor intent was never attributed to any ledger
		// effect; it simply expires processor-side.
		return nil, err
	}
	metrics.IncPayment(string(model.PaymentStatusPending), string(kind))

	return &IntentResponse{
		PaymentID:    p.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       p.Amount,
		Currency:     p.Currency,
	}, nil
}

type pricedIntent struct {
	amount  int64
	context model.PaymentContext
}

// priceAndCheck runs the kind-specific eligibility checks and pricing lookups.
// These are pre-checks outside any transaction; the appliers re-validate the
// invariants that can move between intent and finalize.
func (u *paymentUC) priceAndCheck(ctx context.Context, payer model.PayerRef, kind model.PaymentKind, req IntentRequest) (*pricedIntent, error) {
	switch kind {
	case model.PaymentKindPoints:
		if payer.Type != model.PayerClient {
			return nil, domain.ErrInvalidArgument
		}
		pkg, err := u.catalog.PointPackage(ctx, req.PackageID)
		if err != nil {
			return nil, err
		}
		return &pricedIntent{
			amount:  pkg.PriceMinor,
			context: model.PaymentContext{Points: &model.PointsContext{AccountID: payer.ID, PackageID: pkg.ID}},
		}, nil

	case model.PaymentKindBoost:
		post, err := u.posts.FindByID(ctx, repository.NoTX, req.PostID)
		if err != nil {
			return nil, err
		}
		if !post.Owner.Equal(payer) {
			return nil, domain.ErrNotOwner
		}
		if b, err := u.boosts.FindActiveByPost(ctx, repository.NoTX, post.ID, time.Now()); err == nil && b != nil {
			return nil, domain.ErrAlreadyBoosted
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		pricing, err := u.catalog.BoostPricing(ctx, req.PricingID)
		if err != nil {
			return nil, err
		}
		return &pricedIntent{
			amount:  pricing.PriceMinor,
			context: model.PaymentContext{Boost: &model.BoostContext{PostID: post.ID, PricingID: pricing.ID}},
		}, nil

	case model.PaymentKindVerification:
		if payer.Type != model.PayerAgency {
			return nil, domain.ErrInvalidArgument
		}
		esc, err := u.escorts.FindByID(ctx, repository.NoTX, req.EscortID)
		if err != nil {
			return nil, err
		}
		if !esc.Active || esc.AgencyID != payer.ID {
			return nil, domain.ErrNotAgencyMember
		}
		if esc.Verified {
			return nil, domain.ErrAlreadyVerified
		}
		pricing, err := u.catalog.VerificationPricing(ctx, req.PricingID)
		if err != nil {
			return nil, err
		}
		return &pricedIntent{
			amount: pricing.PriceMinor,
			context: model.PaymentContext{Verification: &model.VerificationContext{
				EscortID:  esc.ID,
				AgencyID:  payer.ID,
				PricingID: pricing.ID,
			}},
		}, nil

	case model.PaymentKindPremium:
		if payer.Type == model.PayerClient {
			return nil, domain.ErrInvalidArgument
		}
		pricing, err := u.catalog.PremiumPricing(ctx, model.PremiumTier(req.Tier), req.DurationDays)
		if err != nil {
			return nil, err
		}
		return &pricedIntent{
			amount: pricing.PriceMinor,
			context: model.PaymentContext{Premium: &model.PremiumContext{
				Tier:         req.Tier,
				DurationDays: req.DurationDays,
			}},
		}, nil

	case model.PaymentKindExtraListing:
		draft, err := u.drafts.FindByID(ctx, repository.NoTX, req.DraftID)
		if err != nil {
			return nil, err
		}
		if !draft.Owner.Equal(payer) {
			return nil, domain.ErrNotOwner
		}
		count, err := u.posts.CountActiveByOwner(ctx, repository.NoTX, payer)
		if err != nil {
			return nil, err
		}
		if count >= u.ceiling {
			return nil, domain.ErrListingCeiling
		}
		pricing, err := u.catalog.ExtraListingPricing(ctx)
		if err != nil {
			return nil, err
		}
		return &pricedIntent{
			amount:  pricing.PriceMinor,
			context: model.PaymentContext{ExtraListing: &model.ExtraListingContext{DraftID: draft.ID}},
		}, nil

	default:
		return nil, domain.ErrInvalidArgument
	}
}

func (u *paymentUC) Confirm(ctx context.Context, paymentID string, caller model.PayerRef) (*model.ApplicationResult, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Confirm")()
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if !p.Payer.Equal(caller) {
		return nil, domain.ErrNotOwner
	}
	return u.confirmPayment(ctx, p)
}

// Reverify is Confirm without the ownership check, for the reconciler.
func (u *paymentUC) Reverify(ctx context.Context, paymentID string) (*model.ApplicationResult, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	return u.confirmPayment(ctx, p)
}

func (u *paymentUC) confirmPayment(ctx context.Context, p *model.Payment) (*model.ApplicationResult, error) {
	if p.Status == model.PaymentStatusCompleted {
		return p.Result, nil // idempotent replay
	}
	if p.Status.Terminal() {
		return nil, domain.ErrPaymentTerminal
	}

	// Network call outside any transaction. A timeout or processor error
	// maps to "not completed yet", never to a silent applier retry.
	intent, err := u.processor.RetrieveIntent(ctx, p.ExternalIntentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentNotCompleted, err)
	}
	switch intent.Status {
	case adapter.IntentStatusSucceeded:
		return u.finalize(ctx, p.ID, true, "")
	case adapter.IntentStatusCanceled:
		if _, err := u.finalize(ctx, p.ID, false, "intent canceled by processor"); err != nil {
			return nil, err
		}
		return nil, domain.ErrPaymentNotCompleted
	default:
		return nil, domain.ErrPaymentNotCompleted
	}
}

func (u *paymentUC) HandleProcessorEvent(ctx context.Context, ev *adapter.ProcessorEvent) (*model.ApplicationResult, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.HandleProcessorEvent")()
	if ev == nil || ev.Type == adapter.EventIgnored {
		return nil, nil
	}
	p, err := u.payments.FindByExternalIntentID(ctx, repository.NoTX, ev.IntentID)
	if errors.Is(err, domain.ErrNotFound) {
		// Not ours (e.g. another product on the same processor account).
		u.log.Warn().Str("intent_id", ev.IntentID).Str("event", string(ev.Type)).Msg("webhook for unknown intent")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	switch ev.Type {
	case adapter.EventIntentSucceeded:
		res, err := u.finalize(ctx, p.ID, true, "")
		if errors.Is(err, domain.ErrPaymentTerminal) {
			// Late success for a payment the reconciler already cancelled
			// (or a failed/refunded one). The money question belongs to
			// support tooling; the delivery itself is accepted for good.
			u.log.Warn().Str("payment_id", p.ID).Str("status", string(p.Status)).
				Msg("success event for terminal payment recorded as no-op")
			return nil, nil
		}
		return res, err
	case adapter.EventIntentFailed:
		reason := ev.FailureReason
		if reason == "" {
			reason = "processor reported failure"
		}
		return u.finalize(ctx, p.ID, false, reason)
	case adapter.EventChargeRefunded:
		return nil, u.followOn(ctx, p.ID, model.PaymentStatusRefunded)
	case adapter.EventDisputeCreated:
		return nil, u.followOn(ctx, p.ID, model.PaymentStatusDisputed)
	default:
		return nil, nil
	}
}

// finalize is the shared guard both trigger paths funnel into. The
// conditional status update decides a single winner; only the winner runs the
// applier, inside the same transaction as the flip. A loser blocks on the row
// until the winner commits, then reads and returns the recorded result.
func (u *paymentUC) finalize(ctx context.Context, paymentID string, success bool, failureReason string) (*model.ApplicationResult, error) {
	var res *model.ApplicationResult
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if !success {
			moved, err := u.payments.UpdateStatusIfPending(ctx, tx, paymentID, model.PaymentStatusFailed, &failureReason, nil)
			if err != nil {
				return err
			}
			if moved {
				metrics.IncPayment(string(model.PaymentStatusFailed), "")
			}
			return nil
		}

		now := time.Now()
		won, err := u.payments.UpdateStatusIfPending(ctx, tx, paymentID, model.PaymentStatusCompleted, nil, &now)
		if err != nil {
			return err
		}
		p, err := u.payments.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if !won {
			metrics.IncFinalizeLoser()
			if p.Status == model.PaymentStatusCompleted {
				res = p.Result
				return nil
			}
			return domain.ErrPaymentTerminal
		}

		apply, err := u.appliers.applierFor(p.Kind)
		if err != nil {
			return err
		}
		r, err := apply(ctx, tx, p)
		if err != nil {
			// Rollback undoes the status flip too: the payment must never be
			// completed without a successfully applied effect.
			u.log.Error().Err(err).Str("payment_id", p.ID).Str("kind", string(p.Kind)).Msg("applier failed, finalize aborted")
			return err
		}
		if err := u.payments.StoreResult(ctx, tx, p.ID, r); err != nil {
			return err
		}
		metrics.IncPayment(string(model.PaymentStatusCompleted), string(p.Kind))
		metrics.AddPaymentRevenue(p.Currency, p.Amount)
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *paymentUC) followOn(ctx context.Context, paymentID string, status model.PaymentStatus) error {
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		moved, err := u.payments.UpdateStatusIfCompleted(ctx, tx, paymentID, status)
		if err != nil {
			return err
		}
		if moved {
			metrics.IncPayment(string(status), "")
		}
		return nil
	})
}

func (u *paymentUC) Expire(ctx context.Context, paymentID string) (bool, error) {
	var moved bool
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		reason := "expired before completion"
		var err error
		moved, err = u.payments.UpdateStatusIfPending(ctx, tx, paymentID, model.PaymentStatusCancelled, &reason, nil)
		return err
	})
	if err != nil {
		return false, err
	}
	if moved {
		metrics.IncPayment(string(model.PaymentStatusCancelled), "")
	}
	return moved, nil
}
