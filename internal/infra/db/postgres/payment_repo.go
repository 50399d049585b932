package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"marketplace-payments/internal/domain"
	"marketplace-payments/internal/domain/model"
	"marketplace-payments/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, payer_type, payer_id, kind, amount, currency, external_intent_id, status, context, result, failure_reason, created_at, updated_at, completed_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	ctxJSON, err := json.Marshal(p.Context)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	var resJSON []byte
	if p.Result != nil {
		if resJSON, err = json.Marshal(p.Result); err != nil {
			return domain.ErrInvalidArgument
		}
	}

	const q = `
INSERT INTO payments (` + paymentColumns + `) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14
) ON CONFLICT (id) DO UPDATE SET
  status=$8, context=$9, result=$10, failure_reason=$11, updated_at=$13, completed_at=$14;`

	_, err = execSQL(ctx, r.pool, tx, q,
		p.ID, p.Payer.Type, p.Payer.ID, p.Kind, p.Amount, p.Currency, p.ExternalIntentID,
		p.Status, ctxJSON, resJSON, nullableStr(p.FailureReason), p.CreatedAt, p.UpdatedAt, p.CompletedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindByExternalIntentID(ctx context.Context, tx repository.Tx, intentID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE external_intent_id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", intentID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

// UpdateStatusIfPending atomically updates status only when the current
// status is still non-terminal. RowsAffected decides the finalize winner.
func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, failureReason *string, completedAt *time.Time) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       failure_reason = COALESCE($3, failure_reason),
       completed_at = COALESCE($4, completed_at),
       updated_at = NOW()
 WHERE id = $1
   AND status IN ('pending','processing');`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), failureReason, completedAt)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) UpdateStatusIfCompleted(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) (bool, error) {
	const q = `UPDATE payments SET status=$2, updated_at=NOW() WHERE id=$1 AND status='completed';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) StoreResult(ctx context.Context, tx repository.Tx, id string, res *model.ApplicationResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `UPDATE payments SET result=$2, updated_at=NOW() WHERE id=$1;`
	if _, err := execSQL(ctx, r.pool, tx, q, id, b); err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrInvalidExecContext) {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var ctxJSON, resJSON []byte
	var failureReason *string
	err := row.Scan(&p.ID, &p.Payer.Type, &p.Payer.ID, &p.Kind, &p.Amount, &p.Currency,
		&p.ExternalIntentID, &p.Status, &ctxJSON, &resJSON, &failureReason,
		&p.CreatedAt, &p.UpdatedAt, &p.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if failureReason != nil {
		p.FailureReason = *failureReason
	}
	if len(ctxJSON) > 0 {
		if err := json.Unmarshal(ctxJSON, &p.Context); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if len(resJSON) > 0 {
		p.Result = &model.ApplicationResult{}
		if err := json.Unmarshal(resJSON, p.Result); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return p, nil
}

func nullableStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
