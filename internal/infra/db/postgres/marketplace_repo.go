package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"marketplace-payments/internal/domain"
	"marketplace-payments/internal/domain/model"
	"marketplace-payments/internal/domain/ports/repository"
)

var (
	_ repository.PostRepository         = (*postRepo)(nil)
	_ repository.EscortRepository       = (*escortRepo)(nil)
	_ repository.AgencyRepository       = (*agencyRepo)(nil)
	_ repository.ListingDraftRepository = (*listingDraftRepo)(nil)
)

// postRepo is the payment core's boundary onto the post service's storage:
// only the columns boosts and extra listings touch.
type postRepo struct{ pool *pgxpool.Pool }

func NewPostRepo(pool *pgxpool.Pool) *postRepo { return &postRepo{pool: pool} }

func (r *postRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Post, error) {
	q := `SELECT id, owner_type, owner_id, title, score, views, clicks, featured, active, created_at FROM posts WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	p := &model.Post{}
	if err := row.Scan(&p.ID, &p.Owner.Type, &p.Owner.ID, &p.Title, &p.Score, &p.Views, &p.Clicks, &p.Featured, &p.Active, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return p, nil
}

func (r *postRepo) IncrementScore(ctx context.Context, tx repository.Tx, id string, delta float64) error {
	const q = `UPDATE posts SET score=score+$2 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, delta)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postRepo) MarkFeatured(ctx context.Context, tx repository.Tx, id string, featured bool) error {
	const q = `UPDATE posts SET featured=$2 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, featured)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postRepo) CountActiveByOwner(ctx context.Context, tx repository.Tx, owner model.PayerRef) (int, error) {
	const q = `SELECT COUNT(*) FROM posts WHERE owner_type=$1 AND owner_id=$2 AND active;`
	row, err := pickRow(ctx, r.pool, tx, q, owner.Type, owner.ID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *postRepo) CreateFromDraft(ctx context.Context, tx repository.Tx, draft *model.ListingDraft) (*model.Post, error) {
	p := &model.Post{
		ID:        uuid.NewString(),
		Owner:     draft.Owner,
		Title:     draft.Title,
		Active:    true,
		CreatedAt: time.Now(),
	}
	const q = `
INSERT INTO posts (id, owner_type, owner_id, title, body, score, views, clicks, featured, active, created_at)
VALUES ($1,$2,$3,$4,$5,0,0,0,false,true,$6);`
	if _, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Owner.Type, p.Owner.ID, draft.Title, draft.Body, p.CreatedAt); err != nil {
		return nil, domain.ErrOperationFailed
	}
	return p, nil
}

type escortRepo struct{ pool *pgxpool.Pool }

func NewEscortRepo(pool *pgxpool.Pool) *escortRepo { return &escortRepo{pool: pool} }

func (r *escortRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Escort, error) {
	q := `SELECT id, agency_id, active, verified, verified_at FROM escorts WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	e := &model.Escort{}
	if err := row.Scan(&e.ID, &e.AgencyID, &e.Active, &e.Verified, &e.VerifiedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return e, nil
}

func (r *escortRepo) SetVerified(ctx context.Context, tx repository.Tx, id string, verified bool) error {
	const q = `UPDATE escorts SET verified=$2, verified_at=CASE WHEN $2 THEN NOW() ELSE NULL END WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, verified)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type agencyRepo struct{ pool *pgxpool.Pool }

func NewAgencyRepo(pool *pgxpool.Pool) *agencyRepo { return &agencyRepo{pool: pool} }

func (r *agencyRepo) IncrementVerifiedCount(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE agencies SET verified_count=verified_count+1 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type listingDraftRepo struct{ pool *pgxpool.Pool }

func NewListingDraftRepo(pool *pgxpool.Pool) *listingDraftRepo { return &listingDraftRepo{pool: pool} }

func (r *listingDraftRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ListingDraft, error) {
	q := `SELECT id, owner_type, owner_id, title, body, consumed, created_at FROM listing_drafts WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q+";", id)
	if err != nil {
		return nil, err
	}
	d := &model.ListingDraft{}
	if err := row.Scan(&d.ID, &d.Owner.Type, &d.Owner.ID, &d.Title, &d.Body, &d.Consumed, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return d, nil
}

func (r *listingDraftRepo) MarkConsumed(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `UPDATE listing_drafts SET consumed=true WHERE id=$1 AND NOT consumed;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}
