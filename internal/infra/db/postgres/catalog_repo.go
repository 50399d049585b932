package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"marketplace-payments/internal/domain"
	"marketplace-payments/internal/domain/model"
	"marketplace-payments/internal/domain/ports/repository"
)

var _ repository.CatalogRepository = (*catalogRepo)(nil)

// catalogRepo reads the pricing tables. All lookups run on the pool; prices
// are read-mostly and missing rows map to ErrPricingNotFound so handlers can
// answer 404 instead of a generic failure.
type catalogRepo struct{ pool *pgxpool.Pool }

func NewCatalogRepo(pool *pgxpool.Pool) *catalogRepo { return &catalogRepo{pool: pool} }

func (r *catalogRepo) PointPackage(ctx context.Context, id string) (*model.PointPackage, error) {
	const q = `SELECT id, points, bonus, price_minor, currency, active FROM point_packages WHERE id=$1 AND active;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}
	p := &model.PointPackage{}
	if err := row.Scan(&p.ID, &p.Points, &p.Bonus, &p.PriceMinor, &p.Currency, &p.Active); err != nil {
		return nil, pricingScanErr(err)
	}
	return p, nil
}

func (r *catalogRepo) BoostPricing(ctx context.Context, id string) (*model.BoostPricing, error) {
	const q = `SELECT id, duration_hours, multiplier, featured, price_minor, currency, active FROM boost_pricings WHERE id=$1 AND active;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}
	p := &model.BoostPricing{}
	var hours int
	if err := row.Scan(&p.ID, &hours, &p.Multiplier, &p.Featured, &p.PriceMinor, &p.Currency, &p.Active); err != nil {
		return nil, pricingScanErr(err)
	}
	p.Duration = time.Duration(hours) * time.Hour
	return p, nil
}

func (r *catalogRepo) VerificationPricing(ctx context.Context, id string) (*model.VerificationPricing, error) {
	const q = `SELECT id, duration_days, price_minor, currency, active FROM verification_pricings WHERE id=$1 AND active;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}
	p := &model.VerificationPricing{}
	var days *int
	if err := row.Scan(&p.ID, &days, &p.PriceMinor, &p.Currency, &p.Active); err != nil {
		return nil, pricingScanErr(err)
	}
	if days != nil {
		d := time.Duration(*days) * 24 * time.Hour
		p.Duration = &d
	}
	return p, nil
}

func (r *catalogRepo) PremiumPricing(ctx context.Context, tier model.PremiumTier, durationDays int) (*model.PremiumPricing, error) {
	const q = `SELECT id, tier, duration_days, price_minor, currency, active FROM premium_pricings WHERE tier=$1 AND duration_days=$2 AND active;`
	row, err := pickRow(ctx, r.pool, nil, q, tier, durationDays)
	if err != nil {
		return nil, err
	}
	p := &model.PremiumPricing{}
	if err := row.Scan(&p.ID, &p.Tier, &p.DurationDays, &p.PriceMinor, &p.Currency, &p.Active); err != nil {
		return nil, pricingScanErr(err)
	}
	return p, nil
}

func (r *catalogRepo) ExtraListingPricing(ctx context.Context) (*model.ExtraListingPricing, error) {
	const q = `SELECT id, price_minor, currency, active FROM extra_listing_pricings WHERE active ORDER BY id LIMIT 1;`
	row, err := pickRow(ctx, r.pool, nil, q)
	if err != nil {
		return nil, err
	}
	p := &model.ExtraListingPricing{}
	if err := row.Scan(&p.ID, &p.PriceMinor, &p.Currency, &p.Active); err != nil {
		return nil, pricingScanErr(err)
	}
	return p, nil
}

func pricingScanErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPricingNotFound
	}
	return domain.ErrReadDatabaseRow
}
