package repository

import (
	"context"
	"time"

	"marketplace-payments/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByExternalIntentID(ctx context.Context, tx Tx, intentID string) (*model.Payment, error)

	// UpdateStatusIfPending performs the atomic conditional transition that
	// decides the finalize race: it moves the row to status only when the
	// current status is still pending/processing and reports whether this
	// caller changed the row.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, failureReason *string, completedAt *time.Time) (bool, error)

	// UpdateStatusIfCompleted records out-of-band follow-on transitions
	// (refunded, disputed) and reports whether the row moved.
	UpdateStatusIfCompleted(ctx context.Context, tx Tx, id string, status model.PaymentStatus) (bool, error)

	// StoreResult persists the applied entitlement summary; written only by
	// the finalize winner, inside the same transaction as the status flip.
	StoreResult(ctx context.Context, tx Tx, id string, res *model.ApplicationResult) error

	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}
