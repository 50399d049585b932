// File: cmd/seed/main.go
//
// Seeds the pricing catalog with a starter set of packages so the payment
// flow can be exercised on a fresh database. Existing rows are left alone.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"marketplace-payments/internal/config"
	pg "marketplace-payments/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	type stmt struct {
		desc string
		sql  string
		args []any
	}
	seeds := []stmt{
		{"point package: small", `INSERT INTO point_packages (id, points, bonus, price_minor, currency, active)
			VALUES ($1,$2,$3,$4,$5,true) ON CONFLICT (id) DO NOTHING;`,
			[]any{"pkg_small", 100, 0, 499, cfg.Payment.Currency}},
		{"point package: medium", `INSERT INTO point_packages (id, points, bonus, price_minor, currency, active)
			VALUES ($1,$2,$3,$4,$5,true) ON CONFLICT (id) DO NOTHING;`,
			[]any{"pkg_medium", 500, 50, 1999, cfg.Payment.Currency}},
		{"point package: large", `INSERT INTO point_packages (id, points, bonus, price_minor, currency, active)
			VALUES ($1,$2,$3,$4,$5,true) ON CONFLICT (id) DO NOTHING;`,
			[]any{"pkg_large", 1500, 300, 4999, cfg.Payment.Currency}},

		{"boost: 24h", `INSERT INTO boost_pricings (id, duration_hours, multiplier, featured, price_minor, currency, active)
			VALUES ($1,$2,$3,$4,$5,$6,true) ON CONFLICT (id) DO NOTHING;`,
			[]any{"boost_24h", 24, 1.5, false, 999, cfg.Payment.Currency}},
		{"boost: 72h featured", `INSERT INTO boost_pricings (id, duration_hours, multiplier, featured, price_minor, currency, active)
			VALUES ($1,$2,$3,$4,$5,$6,true) ON CONFLICT (id) DO NOTHING;`,
			[]any{"boost_72h_featured", 72, 2.0, true, 2499, cfg.Payment.Currency}},

		{"verification: annual", `INSERT INTO verification_pricings (id, duration_days, price_minor, currency, active)
			VALUES ($1,$2,$3,$4,true) ON CONFLICT (id) DO NOTHING;`,
			[]any{"verify_annual", 365, 4999, cfg.Payment.Currency}},
		{"verification: permanent", `INSERT INTO verification_pricings (id, duration_days, price_minor, currency, active)
			VALUES ($1,NULL,$2,$3,true) ON CONFLICT (id) DO NOTHING;`,
			[]any{"verify_permanent", 14999, cfg.Payment.Currency}},

		{"premium: silver 30d", `INSERT INTO premium_pricings (id, tier, duration_days, price_minor, currency, active)
			VALUES ($1,$2,$3,$4,$5,true) ON CONFLICT (id) DO NOTHING;`,
			[]any{"premium_silver_30", "silver", 30, 1499, cfg.Payment.Currency}},
		{"premium: gold 30d", `INSERT INTO premium_pricings (id, tier, duration_days, price_minor, currency, active)
			VALUES ($1,$2,$3,$4,$5,true) ON CONFLICT (id) DO NOTHING;`,
			[]any{"premium_gold_30", "gold", 30, 2999, cfg.Payment.Currency}},

		{"extra listing slot", `INSERT INTO extra_listing_pricings (id, price_minor, currency, active)
			VALUES ($1,$2,$3,true) ON CONFLICT (id) DO NOTHING;`,
			[]any{"extra_listing", 799, cfg.Payment.Currency}},
	}

	for _, s := range seeds {
		tag, err := pool.Exec(ctx, s.sql, s.args...)
		if err != nil {
			log.Fatalf("seed %s: %v", s.desc, err)
		}
		if tag.RowsAffected() > 0 {
			fmt.Printf("seeded %s\n", s.desc)
		} else {
			fmt.Printf("skipped %s (already present)\n", s.desc)
		}
	}
}
