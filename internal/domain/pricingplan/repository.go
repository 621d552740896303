package pricingplan

import "context"

type Repository interface {
	Create(ctx context.Context, plan *PricingPlan) error
	GetByPlanType(ctx context.Context, planType string) (*PricingPlan, error)
	// List returns published plans ordered by display order.
	List(ctx context.Context) ([]*PricingPlan, error)
	Update(ctx context.Context, plan *PricingPlan) error
}
