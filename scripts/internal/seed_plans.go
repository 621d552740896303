package internal

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/docuchat/billing/internal/config"
	"github.com/docuchat/billing/internal/domain/pricingplan"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/postgres"
	"github.com/docuchat/billing/internal/repository"
	"github.com/docuchat/billing/internal/types"
	"github.com/joho/godotenv"
)

// bootstrap loads config and opens the database for one-off scripts.
func bootstrap() (*config.Configuration, *logger.Logger, *postgres.DB, error) {
	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

func scriptContext() context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxTenantID, types.DefaultTenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, types.SystemUserID)
	return ctx
}

// SeedPricingPlans inserts the default catalog into the pricing_plans table,
// picking up provider price ids from STRIPE_PRICE_<PLAN>_<CYCLE> environment
// variables. Existing plan rows are left untouched.
func SeedPricingPlans() error {
	_, log, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repository.NewPricingPlanRepository(db, log)
	ctx := scriptContext()

	for _, plan := range pricingplan.DefaultCatalog() {
		existing, err := repo.GetByPlanType(ctx, string(plan.PlanType))
		if err != nil && !ierr.IsNotFound(err) {
			return err
		}
		if existing != nil {
			fmt.Printf("plan %s already exists, skipping\n", plan.PlanType)
			continue
		}

		prefix := "STRIPE_PRICE_" + strings.ToUpper(string(plan.PlanType))
		plan.StripeMonthlyPriceID = os.Getenv(prefix + "_MONTHLY")
		plan.StripeYearlyPriceID = os.Getenv(prefix + "_YEARLY")
		plan.BaseModel = types.GetDefaultBaseModel(ctx)

		if err := repo.Create(ctx, plan); err != nil {
			return err
		}
		fmt.Printf("seeded plan %s (monthly price id %q, yearly price id %q)\n",
			plan.PlanType, plan.StripeMonthlyPriceID, plan.StripeYearlyPriceID)
	}

	return nil
}
