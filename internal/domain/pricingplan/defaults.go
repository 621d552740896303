package pricingplan

import (
	"github.com/docuchat/billing/internal/domain/subscription"
	"github.com/docuchat/billing/internal/types"
	"github.com/shopspring/decimal"
)

// DefaultCatalog is the hardcoded fallback catalog, used when both the
// database and the cache are unavailable. Price ids are intentionally empty
// here: checkout requires a reachable store, the fallback only has to keep
// plan display and plan-type resolution working.
func DefaultCatalog() []*PricingPlan {
	return []*PricingPlan{
		{
			ID:           "plan_default_free",
			PlanType:     types.PlanTypeFree,
			DisplayName:  "Free",
			Description:  "For trying things out",
			MonthlyPrice: decimal.Zero,
			YearlyPrice:  decimal.Zero,
			Features:     subscription.Features{"community support"},
			Limits: subscription.Limits{
				"documents":  25,
				"questions":  100,
				"members":    1,
				"storage_mb": 100,
				"api_calls":  0,
			},
			DisplayOrder: 0,
		},
		{
			ID:           "plan_default_starter",
			PlanType:     types.PlanTypeStarter,
			DisplayName:  "Starter",
			Description:  "For small teams",
			MonthlyPrice: decimal.NewFromInt(29),
			YearlyPrice:  decimal.NewFromInt(290),
			Features:     subscription.Features{"email support", "document chat"},
			Limits: subscription.Limits{
				"documents":  500,
				"questions":  2000,
				"members":    5,
				"storage_mb": 5120,
				"api_calls":  1000,
			},
			DisplayOrder: 1,
		},
		{
			ID:           "plan_default_professional",
			PlanType:     types.PlanTypeProfessional,
			DisplayName:  "Professional",
			Description:  "For growing teams",
			MonthlyPrice: decimal.NewFromInt(99),
			YearlyPrice:  decimal.NewFromInt(990),
			Features:     subscription.Features{"priority support", "document chat", "api access"},
			Limits: subscription.Limits{
				"documents":  5000,
				"questions":  20000,
				"members":    25,
				"storage_mb": 51200,
				"api_calls":  25000,
			},
			DisplayOrder: 2,
		},
		{
			ID:           "plan_default_enterprise",
			PlanType:     types.PlanTypeEnterprise,
			DisplayName:  "Enterprise",
			Description:  "For organizations with custom needs",
			MonthlyPrice: decimal.NewFromInt(499),
			YearlyPrice:  decimal.NewFromInt(4990),
			Features:     subscription.Features{"dedicated support", "document chat", "api access", "sso"},
			Limits: subscription.Limits{
				"documents":  types.UnlimitedQuota,
				"questions":  types.UnlimitedQuota,
				"members":    types.UnlimitedQuota,
				"storage_mb": types.UnlimitedQuota,
				"api_calls":  types.UnlimitedQuota,
			},
			DisplayOrder: 3,
		},
	}
}
