package repository

import (
	"context"
	"time"

	"marketplace-payments/internal/domain/model"
)

type PointLedgerRepository interface {
	// GetAccountForUpdate loads the account row, taking a row lock when tx is
	// a live transaction so a concurrent spend cannot pass its balance check
	// against a stale read.
	GetAccountForUpdate(ctx context.Context, tx Tx, accountID string) (*model.PointAccount, error)

	CreateAccount(ctx context.Context, tx Tx, accountID string) error

	// SetBalance writes the cached projection. Callers must append the
	// matching ledger entry in the same transaction.
	SetBalance(ctx context.Context, tx Tx, accountID string, balance int64) error

	AppendTransaction(ctx context.Context, tx Tx, entry *model.PointTransaction) error

	ListTransactions(ctx context.Context, tx Tx, accountID string, limit int, before *time.Time) ([]*model.PointTransaction, error)

	// ResetDailyUsage zeroes the free-action counter and stamps the reset
	// day; idempotent per calendar day.
	ResetDailyUsage(ctx context.Context, tx Tx, accountID string, day time.Time) error

	IncrementDailyUsage(ctx context.Context, tx Tx, accountID string) error
}
