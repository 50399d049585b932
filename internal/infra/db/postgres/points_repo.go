package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"marketplace-payments/internal/domain"
	"marketplace-payments/internal/domain/model"
	"marketplace-payments/internal/domain/ports/repository"
)

var _ repository.PointLedgerRepository = (*pointLedgerRepo)(nil)

type pointLedgerRepo struct{ pool *pgxpool.Pool }

func NewPointLedgerRepo(pool *pgxpool.Pool) *pointLedgerRepo {
	return &pointLedgerRepo{pool: pool}
}

func (r *pointLedgerRepo) GetAccountForUpdate(ctx context.Context, tx repository.Tx, accountID string) (*model.PointAccount, error) {
	q := `SELECT account_id, balance, free_actions_used, last_reset, created_at, updated_at FROM point_accounts WHERE account_id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", accountID)
	if err != nil {
		return nil, err
	}
	a := &model.PointAccount{}
	if err := row.Scan(&a.AccountID, &a.Balance, &a.FreeActionsUsed, &a.LastReset, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return a, nil
}

func (r *pointLedgerRepo) CreateAccount(ctx context.Context, tx repository.Tx, accountID string) error {
	const q = `
INSERT INTO point_accounts (account_id, balance, free_actions_used, last_reset, created_at, updated_at)
VALUES ($1, 0, 0, CURRENT_DATE, NOW(), NOW())
ON CONFLICT (account_id) DO NOTHING;`
	if _, err := execSQL(ctx, r.pool, tx, q, accountID); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *pointLedgerRepo) SetBalance(ctx context.Context, tx repository.Tx, accountID string, balance int64) error {
	if balance < 0 {
		return domain.ErrInvalidArgument
	}
	const q = `UPDATE point_accounts SET balance=$2, updated_at=NOW() WHERE account_id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, accountID, balance)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pointLedgerRepo) AppendTransaction(ctx context.Context, tx repository.Tx, entry *model.PointTransaction) error {
	const q = `
INSERT INTO point_transactions (id, account_id, amount, kind, balance_before, balance_after, related_payment_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	_, err := execSQL(ctx, r.pool, tx, q,
		entry.ID, entry.AccountID, entry.Amount, entry.Kind,
		entry.BalanceBefore, entry.BalanceAfter, entry.RelatedPaymentID, entry.CreatedAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *pointLedgerRepo) ListTransactions(ctx context.Context, tx repository.Tx, accountID string, limit int, before *time.Time) ([]*model.PointTransaction, error) {
	q := `SELECT id, account_id, amount, kind, balance_before, balance_after, related_payment_id, created_at
FROM point_transactions WHERE account_id=$1`
	args := []interface{}{accountID}
	if before != nil {
		q += ` AND created_at < $2`
		args = append(args, *before)
	}
	if limit <= 0 {
		limit = 50
	}
	q += ` ORDER BY created_at DESC, id DESC LIMIT ` + strconv.Itoa(limit) + `;`

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.PointTransaction
	for rows.Next() {
		e := &model.PointTransaction{}
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Kind, &e.BalanceBefore, &e.BalanceAfter, &e.RelatedPaymentID, &e.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *pointLedgerRepo) ResetDailyUsage(ctx context.Context, tx repository.Tx, accountID string, day time.Time) error {
	const q = `UPDATE point_accounts SET free_actions_used=0, last_reset=$2, updated_at=NOW() WHERE account_id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, accountID, day)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pointLedgerRepo) IncrementDailyUsage(ctx context.Context, tx repository.Tx, accountID string) error {
	const q = `UPDATE point_accounts SET free_actions_used=free_actions_used+1, updated_at=NOW() WHERE account_id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, accountID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
