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

var (
	_ repository.BoostRepository        = (*boostRepo)(nil)
	_ repository.VerificationRepository = (*verificationRepo)(nil)
	_ repository.PremiumRepository      = (*premiumRepo)(nil)
)

type boostRepo struct{ pool *pgxpool.Pool }

func NewBoostRepo(pool *pgxpool.Pool) *boostRepo { return &boostRepo{pool: pool} }

func (r *boostRepo) Save(ctx context.Context, tx repository.Tx, b *model.Boost) error {
	const q = `
INSERT INTO boosts (id, post_id, pricing_id, multiplier, score_delta, baseline_views, baseline_clicks, featured, activated_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10);`
	_, err := execSQL(ctx, r.pool, tx, q,
		b.ID, b.PostID, b.PricingID, b.Multiplier, b.ScoreDelta,
		b.BaselineViews, b.BaselineClicks, b.Featured, b.ActivatedAt, b.ExpiresAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *boostRepo) FindActiveByPost(ctx context.Context, tx repository.Tx, postID string, now time.Time) (*model.Boost, error) {
	const q = `
SELECT id, post_id, pricing_id, multiplier, score_delta, baseline_views, baseline_clicks, featured, activated_at, expires_at
FROM boosts WHERE post_id=$1 AND expires_at > $2 ORDER BY expires_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, postID, now)
	if err != nil {
		return nil, err
	}
	b := &model.Boost{}
	if err := row.Scan(&b.ID, &b.PostID, &b.PricingID, &b.Multiplier, &b.ScoreDelta,
		&b.BaselineViews, &b.BaselineClicks, &b.Featured, &b.ActivatedAt, &b.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return b, nil
}

type verificationRepo struct{ pool *pgxpool.Pool }

func NewVerificationRepo(pool *pgxpool.Pool) *verificationRepo { return &verificationRepo{pool: pool} }

func (r *verificationRepo) Save(ctx context.Context, tx repository.Tx, v *model.Verification) error {
	const q = `
INSERT INTO verifications (id, escort_id, agency_id, pricing_id, payment_id, verified_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	_, err := execSQL(ctx, r.pool, tx, q, v.ID, v.EscortID, v.AgencyID, v.PricingID, v.PaymentID, v.VerifiedAt, v.ExpiresAt)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *verificationRepo) FindByEscort(ctx context.Context, tx repository.Tx, escortID string) (*model.Verification, error) {
	const q = `
SELECT id, escort_id, agency_id, pricing_id, payment_id, verified_at, expires_at
FROM verifications WHERE escort_id=$1 ORDER BY verified_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, escortID)
	if err != nil {
		return nil, err
	}
	v := &model.Verification{}
	if err := row.Scan(&v.ID, &v.EscortID, &v.AgencyID, &v.PricingID, &v.PaymentID, &v.VerifiedAt, &v.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return v, nil
}

type premiumRepo struct{ pool *pgxpool.Pool }

func NewPremiumRepo(pool *pgxpool.Pool) *premiumRepo { return &premiumRepo{pool: pool} }

func (r *premiumRepo) Find(ctx context.Context, tx repository.Tx, subjectType model.PayerType, subjectID string) (*model.PremiumState, error) {
	q := `SELECT subject_type, subject_id, tier, benefits, expires_at, updated_at FROM premium_states WHERE subject_type=$1 AND subject_id=$2`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", subjectType, subjectID)
	if err != nil {
		return nil, err
	}
	s := &model.PremiumState{}
	var benefits []byte
	if err := row.Scan(&s.SubjectType, &s.SubjectID, &s.Tier, &benefits, &s.ExpiresAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(benefits) > 0 {
		if err := json.Unmarshal(benefits, &s.Benefits); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return s, nil
}

func (r *premiumRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.PremiumState) error {
	benefits, err := json.Marshal(s.Benefits)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO premium_states (subject_type, subject_id, tier, benefits, expires_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (subject_type, subject_id) DO UPDATE SET
  tier=$3, benefits=$4, expires_at=$5, updated_at=$6;`
	if _, err := execSQL(ctx, r.pool, tx, q, s.SubjectType, s.SubjectID, s.Tier, benefits, s.ExpiresAt, s.UpdatedAt); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}
