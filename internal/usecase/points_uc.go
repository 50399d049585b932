// File: internal/usecase/points_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"marketplace-payments/internal/domain"
	"marketplace-payments/internal/domain/model"
	"marketplace-payments/internal/domain/ports/repository"
	"marketplace-payments/internal/infra/logging"
	"marketplace-payments/internal/infra/metrics"
)

// Compile-time check
var _ PointsUseCase = (*pointsUC)(nil)

type PointsUseCase interface {
	// Grant appends a positive ledger entry and bumps the cached balance in
	// one transaction. The account is created lazily on first grant.
	Grant(ctx context.Context, accountID string, amount int64, kind model.PointTxKind, relatedPaymentID *string) (*model.PointTransaction, error)
	// GrantTx is Grant running inside an already-open transaction; used by
	// the points applier so the grant commits together with the payment flip.
	GrantTx(ctx context.Context, tx repository.Tx, accountID string, amount int64, kind model.PointTxKind, relatedPaymentID *string) (*model.PointTransaction, error)
	// Spend checks the row-locked balance and decrements it atomically;
	// returns ErrInsufficientBalance with no effect when the balance is short.
	Spend(ctx context.Context, accountID string, amount int64, kind model.PointTxKind, relatedPaymentID *string) (*model.PointTransaction, error)
	Balance(ctx context.Context, accountID string) (int64, error)
	History(ctx context.Context, accountID string, limit int, before *time.Time) ([]*model.PointTransaction, error)
	// DailyReset zeroes the free-action counter once per calendar day.
	// Reports whether a reset actually happened.
	DailyReset(ctx context.Context, accountID string, day time.Time) (bool, error)
	// SpendForChatAction consumes a free daily action when one remains,
	// otherwise spends points.
	SpendForChatAction(ctx context.Context, accountID string, cost int64) (*ChatActionOutcome, error)
}

// ChatActionOutcome reports how a chat action was paid for.
type ChatActionOutcome struct {
	Free  bool
	Entry *model.PointTransaction // nil when the action was free
}

type pointsUC struct {
	ledger           repository.PointLedgerRepository
	tm               repository.TransactionManager
	freeDailyActions int
	log              *zerolog.Logger
}

func NewPointsUseCase(ledger repository.PointLedgerRepository, tm repository.TransactionManager, freeDailyActions int, logger *zerolog.Logger) *pointsUC {
	return &pointsUC{ledger: ledger, tm: tm, freeDailyActions: freeDailyActions, log: logger}
}

func (u *pointsUC) Grant(ctx context.Context, accountID string, amount int64, kind model.PointTxKind, relatedPaymentID *string) (*model.PointTransaction, error) {
	defer logging.TraceDuration(u.log, "PointsUC.Grant")()
	var entry *model.PointTransaction
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		entry, err = u.GrantTx(ctx, tx, accountID, amount, kind, relatedPaymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (u *pointsUC) GrantTx(ctx context.Context, tx repository.Tx, accountID string, amount int64, kind model.PointTxKind, relatedPaymentID *string) (*model.PointTransaction, error) {
	if accountID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	acct, err := u.ledger.GetAccountForUpdate(ctx, tx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		if err = u.ledger.CreateAccount(ctx, tx, accountID); err != nil {
			return nil, err
		}
		acct, err = u.ledger.GetAccountForUpdate(ctx, tx, accountID)
	}
	if err != nil {
		return nil, err
	}
	entry := u.newEntry(acct, amount, kind, relatedPaymentID)
	if err := u.ledger.AppendTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := u.ledger.SetBalance(ctx, tx, accountID, entry.BalanceAfter); err != nil {
		return nil, err
	}
	metrics.AddPointsGranted(string(kind), amount)
	return entry, nil
}

func (u *pointsUC) Spend(ctx context.Context, accountID string, amount int64, kind model.PointTxKind, relatedPaymentID *string) (*model.PointTransaction, error) {
	defer logging.TraceDuration(u.log, "PointsUC.Spend")()
	if accountID == "" || amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	var entry *model.PointTransaction
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		entry, err = u.spendTx(ctx, tx, accountID, amount, kind, relatedPaymentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// spendTx holds the check-then-act under the account row lock: the balance
// read and the decrement commit together or not at all.
func (u *pointsUC) spendTx(ctx context.Context, tx repository.Tx, accountID string, amount int64, kind model.PointTxKind, relatedPaymentID *string) (*model.PointTransaction, error) {
	acct, err := u.ledger.GetAccountForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.Balance < amount {
		metrics.IncInsufficientBalance()
		return nil, domain.ErrInsufficientBalance
	}
	entry := u.newEntry(acct, -amount, kind, relatedPaymentID)
	if err := u.ledger.AppendTransaction(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := u.ledger.SetBalance(ctx, tx, accountID, entry.BalanceAfter); err != nil {
		return nil, err
	}
	metrics.AddPointsSpent(string(kind), amount)
	return entry, nil
}

func (u *pointsUC) newEntry(acct *model.PointAccount, amount int64, kind model.PointTxKind, relatedPaymentID *string) *model.PointTransaction {
	return &model.PointTransaction{
		ID:               ulid.Make().String(),
		AccountID:        acct.AccountID,
		Amount:           amount,
		Kind:             kind,
		BalanceBefore:    acct.Balance,
		BalanceAfter:     acct.Balance + amount,
		RelatedPaymentID: relatedPaymentID,
		CreatedAt:        time.Now(),
	}
}

func (u *pointsUC) Balance(ctx context.Context, accountID string) (int64, error) {
	acct, err := u.ledger.GetAccountForUpdate(ctx, repository.NoTX, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

func (u *pointsUC) History(ctx context.Context, accountID string, limit int, before *time.Time) ([]*model.PointTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return u.ledger.ListTransactions(ctx, repository.NoTX, accountID, limit, before)
}

func (u *pointsUC) DailyReset(ctx context.Context, accountID string, day time.Time) (bool, error) {
	var reset bool
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		acct, err := u.ledger.GetAccountForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if acct.SameResetDay(day) {
			return nil
		}
		if err := u.ledger.ResetDailyUsage(ctx, tx, accountID, day); err != nil {
			return err
		}
		reset = true
		return nil
	})
	return reset, err
}

func (u *pointsUC) SpendForChatAction(ctx context.Context, accountID string, cost int64) (*ChatActionOutcome, error) {
	defer logging.TraceDuration(u.log, "PointsUC.SpendForChatAction")()
	if cost <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	var out ChatActionOutcome
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		acct, err := u.ledger.GetAccountForUpdate(ctx, tx, accountID)
		if err != nil {
			return err
		}
		now := time.Now()
		if !acct.SameResetDay(now) {
			if err := u.ledger.ResetDailyUsage(ctx, tx, accountID, now); err != nil {
				return err
			}
			acct.FreeActionsUsed = 0
		}
		if acct.FreeActionsUsed < u.freeDailyActions {
			if err := u.ledger.IncrementDailyUsage(ctx, tx, accountID); err != nil {
				return err
			}
			out.Free = true
			return nil
		}
		entry, err := u.spendTx(ctx, tx, accountID, cost, model.PointTxKindChatAction, nil)
		if err != nil {
			return err
		}
		out.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
