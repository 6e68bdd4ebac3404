package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/souqly/storefront-backend/internal/pricing"
	products "github.com/souqly/storefront-backend/internal/products"
	"github.com/souqly/storefront-backend/pkg/config"
	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/logger"
	"github.com/souqly/storefront-backend/pkg/migrate"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	fee := flag.String("delivery-fee", "50", "default delivery fee")
	withCategories := flag.Bool("sample-categories", false, "create the sample catalog categories")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	amount, err := decimal.NewFromString(*fee)
	if err != nil || amount.IsNegative() {
		logg.Error(ctx, "invalid -delivery-fee", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	created, err := pricing.NewDeliveryFeeRepository(dbClient.DB()).EnsureDefault(ctx, amount)
	if err != nil {
		logg.Error(ctx, "seed.delivery_fee_failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{
		"created": created,
		"fee":     amount.StringFixed(2),
	}), "seed.delivery_fee")

	if !*withCategories {
		return
	}
	categories, err := products.NewCategoryService(products.NewCategoryRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(ctx, "seed.categories_failed", err)
		os.Exit(1)
	}
	added, err := seedCategories(ctx, categories)
	if err != nil {
		logg.Error(ctx, "seed.categories_failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "created", added), "seed.categories")
}

var sampleCategories = []products.CreateCategoryInput{
	{Name: "Power Tools", Description: "Electric tools of every kind", Icon: "fa-plug"},
	{Name: "Workshop Equipment", Description: "Benches, vises and workshop gear", Icon: "fa-wrench"},
	{Name: "Hand Tools", Description: "Hammers, pliers and other hand tools", Icon: "fa-hammer"},
	{Name: "Measuring Tools", Description: "Gauges and measuring instruments", Icon: "fa-ruler"},
	{Name: "Welding", Description: "Welding machines and supplies", Icon: "fa-fire"},
	{Name: "Accessories", Description: "Accessories and spare parts", Icon: "fa-cog"},
}

// seedCategories creates each sample category whose name is not taken yet.
func seedCategories(ctx context.Context, svc products.CategoryService) (int, error) {
	existing, err := svc.ListCategories(ctx, "")
	if err != nil {
		return 0, err
	}
	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		taken[c.Name] = true
	}

	added := 0
	for _, input := range sampleCategories {
		if taken[input.Name] {
			continue
		}
		if _, err := svc.CreateCategory(ctx, input); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}
