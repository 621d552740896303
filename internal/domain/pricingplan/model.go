package pricingplan

import (
	"github.com/docuchat/billing/internal/domain/subscription"
	"github.com/docuchat/billing/internal/types"
	"github.com/shopspring/decimal"
)

// PricingPlan describes one sellable tier and its provider price ids.
type PricingPlan struct {
	// ID is the unique identifier of the plan row
	ID string `db:"id" json:"id"`

	// PlanType is the unique business key of the plan
	PlanType types.PlanType `db:"plan_type" json:"plan_type"`

	// DisplayName is what the frontend shows
	DisplayName string `db:"display_name" json:"display_name"`

	// Description is the marketing one-liner
	Description string `db:"description" json:"description"`

	// MonthlyPrice is the monthly charge
	MonthlyPrice decimal.Decimal `db:"monthly_price" json:"monthly_price"`

	// YearlyPrice is the yearly charge
	YearlyPrice decimal.Decimal `db:"yearly_price" json:"yearly_price"`

	// StripeMonthlyPriceID is the provider price id billed monthly
	StripeMonthlyPriceID string `db:"stripe_monthly_price_id" json:"stripe_monthly_price_id"`

	// StripeYearlyPriceID is the provider price id billed yearly
	StripeYearlyPriceID string `db:"stripe_yearly_price_id" json:"stripe_yearly_price_id"`

	// Features is the feature list of the tier
	Features subscription.Features `db:"features" json:"features"`

	// Limits is the quota table of the tier, -1 meaning unlimited
	Limits subscription.Limits `db:"limits" json:"limits"`

	// DisplayOrder sorts plans on the pricing page
	DisplayOrder int `db:"display_order" json:"display_order"`

	types.BaseModel
}

// PriceID returns the provider price id for the given billing cycle.
func (p *PricingPlan) PriceID(cycle types.BillingCycle) string {
	if cycle == types.BillingCycleYearly {
		return p.StripeYearlyPriceID
	}
	return p.StripeMonthlyPriceID
}
