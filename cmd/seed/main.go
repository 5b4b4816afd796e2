package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/aaracollective/storefront-backend/internal/catalog"
	"github.com/aaracollective/storefront-backend/internal/coupons"
	"github.com/aaracollective/storefront-backend/pkg/config"
	"github.com/aaracollective/storefront-backend/pkg/db"
	"github.com/aaracollective/storefront-backend/pkg/db/models"
	"github.com/aaracollective/storefront-backend/pkg/logger"
)

var defaultCategories = []models.Category{
	{Name: "Jewellery", Slug: "jewellery"},
	{Name: "Clothing", Slug: "clothing"},
	{Name: "Footwear", Slug: "footwear"},
}

const launchCouponCode = "DISCOUNT20"

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.Connect(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := seed(ctx, dbClient); err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "seed complete")
}

// seed is safe to run repeatedly; existing categories are kept and the
// launch coupon terms are refreshed.
func seed(ctx context.Context, client *db.Client) error {
	return client.WithTx(ctx, func(tx *gorm.DB) error {
		categories := catalog.NewRepository(tx)
		for _, c := range defaultCategories {
			category := c
			if err := categories.UpsertCategory(ctx, &category); err != nil {
				return fmt.Errorf("seed category %s: %w", c.Slug, err)
			}
		}

		percent := 20
		coupon := models.Coupon{Code: launchCouponCode, Active: true, PercentOff: &percent}
		if err := coupons.NewRepository(tx).Upsert(ctx, &coupon); err != nil {
			return fmt.Errorf("seed coupon %s: %w", launchCouponCode, err)
		}
		return nil
	})
}
