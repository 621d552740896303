package dto

import (
	"github.com/docuchat/billing/internal/domain/pricingplan"
	"github.com/docuchat/billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PricingPlanResponse is the public shape of one sellable tier.
type PricingPlanResponse struct {
	PlanType     types.PlanType   `json:"plan_type"`
	DisplayName  string           `json:"display_name"`
	Description  string           `json:"description"`
	MonthlyPrice decimal.Decimal  `json:"monthly_price"`
	YearlyPrice  decimal.Decimal  `json:"yearly_price"`
	Features     []string         `json:"features"`
	Limits       map[string]int64 `json:"limits"`
	DisplayOrder int              `json:"display_order"`
}

// ListPricingPlansResponse lists the catalog in display order.
type ListPricingPlansResponse struct {
	Plans []*PricingPlanResponse `json:"plans"`
	Total int                    `json:"total"`
}

func NewPricingPlanResponse(plan *pricingplan.PricingPlan) *PricingPlanResponse {
	return &PricingPlanResponse{
		PlanType:     plan.PlanType,
		DisplayName:  plan.DisplayName,
		Description:  plan.Description,
		MonthlyPrice: plan.MonthlyPrice,
		YearlyPrice:  plan.YearlyPrice,
		Features:     plan.Features,
		Limits:       plan.Limits,
		DisplayOrder: plan.DisplayOrder,
	}
}

func NewListPricingPlansResponse(plans []*pricingplan.PricingPlan) *ListPricingPlansResponse {
	return &ListPricingPlansResponse{
		Plans: lo.Map(plans, func(p *pricingplan.PricingPlan, _ int) *PricingPlanResponse {
			return NewPricingPlanResponse(p)
		}),
		Total: len(plans),
	}
}
