package repository

import (
	"context"

	"marketplace-payments/internal/domain/model"
)

// CatalogRepository serves the pricing table. Lookups run outside any
// transaction; prices are read-mostly.
type CatalogRepository interface {
	PointPackage(ctx context.Context, id string) (*model.PointPackage, error)
	BoostPricing(ctx context.Context, id string) (*model.BoostPricing, error)
	VerificationPricing(ctx context.Context, id string) (*model.VerificationPricing, error)
	PremiumPricing(ctx context.Context, tier model.PremiumTier, durationDays int) (*model.PremiumPricing, error)
	ExtraListingPricing(ctx context.Context) (*model.ExtraListingPricing, error)
}
