package sched

import (
	"context"
	"time"

	"marketplace-payments/internal/domain/ports/repository"
	"marketplace-payments/internal/usecase"

	"github.com/rs/zerolog"
)

// PaymentReconciler periodically scans for stale pending payments and
// re-checks them against the processor. This covers webhooks that never
// arrived and clients that crashed before confirming. Payments still
// pending past their TTL are cancelled.
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	payments   repository.PaymentRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
	pendingTTL time.Duration // how old before giving up and cancelling
	log        *zerolog.Logger
}

func NewPaymentReconciler(
	uc usecase.PaymentUseCase,
	payments repository.PaymentRepository,
	interval, staleAfter, pendingTTL time.Duration,
	logger *zerolog.Logger,
) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	if pendingTTL <= 0 {
		pendingTTL = 24 * time.Hour
	}
	return &PaymentReconciler{
		uc:         uc,
		payments:   payments,
		interval:   interval,
		staleAfter: staleAfter,
		pendingTTL: pendingTTL,
		log:        logger,
	}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("payment-reconciler: list pending failed")
		return
	}
	expiry := time.Now().Add(-w.pendingTTL)
	for _, p := range pending {
		if p.CreatedAt.Before(expiry) {
			expired, err := w.uc.Expire(ctx, p.ID)
			if err != nil {
				w.log.Error().Err(err).Str("payment_id", p.ID).Msg("payment-reconciler: expire failed")
			} else if expired {
				w.log.Info().Str("payment_id", p.ID).Msg("payment-reconciler: cancelled stale payment")
			}
			continue
		}
		if p.ExternalIntentID == "" {
			continue
		}
		if _, err := w.uc.Reverify(ctx, p.ID); err != nil {
			w.log.Debug().Err(err).Str("payment_id", p.ID).Msg("payment-reconciler: still pending")
			continue
		}
		w.log.Info().Str("payment_id", p.ID).Msg("payment-reconciler: reconciled payment")
	}
}
