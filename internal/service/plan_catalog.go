package service

import (
	"context"
	"time"

	"github.com/docuchat/billing/internal/api/dto"
	"github.com/docuchat/billing/internal/cache"
	"github.com/docuchat/billing/internal/domain/pricingplan"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/types"
	"github.com/samber/lo"
)

const planCatalogSnapshotKey = cache.PrefixPlanCatalog + "snapshot"

// planCatalogCacheTTL is deliberately long: the snapshot is a fallback for
// database outages, not a read-through cache.
const planCatalogCacheTTL = 24 * time.Hour

// PlanCatalogService resolves plan types to provider price ids and back.
// Reads fall through a three-level chain: the database, the last cached
// snapshot, and finally the hardcoded default catalog, so plan resolution
// keeps working when the store is unreachable.
type PlanCatalogService interface {
	GetPlan(ctx context.Context, planType types.PlanType) (*pricingplan.PricingPlan, error)
	ListPlans(ctx context.Context) (*dto.ListPricingPlansResponse, error)
	ResolvePlanTypeByPriceID(ctx context.Context, priceID string) (types.PlanType, bool)
	PriceIDForPlan(ctx context.Context, planType types.PlanType, cycle types.BillingCycle) (string, error)
}

type planCatalogService struct {
	ServiceParams
}

func NewPlanCatalogService(params ServiceParams) PlanCatalogService {
	return &planCatalogService{ServiceParams: params}
}

// loadCatalog returns the plan catalog, preferring live data and degrading
// to the cached snapshot, then the static defaults.
func (s *planCatalogService) loadCatalog(ctx context.Context) []*pricingplan.PricingPlan {
	plans, err := s.PricingPlanRepo.List(ctx)
	if err == nil && len(plans) > 0 {
		s.Cache.Set(ctx, planCatalogSnapshotKey, plans, planCatalogCacheTTL)
		return plans
	}
	if err != nil {
		s.Logger.Warnw("failed to load plan catalog from database, falling back", "error", err)
	}

	if cached, found := s.Cache.Get(ctx, planCatalogSnapshotKey); found {
		if snapshot, ok := cached.([]*pricingplan.PricingPlan); ok && len(snapshot) > 0 {
			return snapshot
		}
	}

	return pricingplan.DefaultCatalog()
}

func (s *planCatalogService) GetPlan(ctx context.Context, planType types.PlanType) (*pricingplan.PricingPlan, error) {
	if err := planType.Validate(); err != nil {
		return nil, err
	}

	catalog := s.loadCatalog(ctx)
	plan, found := lo.Find(catalog, func(p *pricingplan.PricingPlan) bool {
		return p.PlanType == planType
	})
	if !found {
		return nil, ierr.NewError("pricing plan not found").
			WithHint("No plan exists for this tier").
			WithReportableDetails(map[string]any{"plan_type": planType}).
			Mark(ierr.ErrNotFound)
	}
	return plan, nil
}

func (s *planCatalogService) ListPlans(ctx context.Context) (*dto.ListPricingPlansResponse, error) {
	return dto.NewListPricingPlansResponse(s.loadCatalog(ctx)), nil
}

// ResolvePlanTypeByPriceID reverse-looks-up a provider price id against the
// catalog. The second return is false when no plan carries the price id.
func (s *planCatalogService) ResolvePlanTypeByPriceID(ctx context.Context, priceID string) (types.PlanType, bool) {
	if priceID == "" {
		return "", false
	}

	catalog := s.loadCatalog(ctx)
	plan, found := lo.Find(catalog, func(p *pricingplan.PricingPlan) bool {
		return p.StripeMonthlyPriceID == priceID || p.StripeYearlyPriceID == priceID
	})
	if !found {
		return "", false
	}
	return plan.PlanType, true
}

// PriceIDForPlan returns the provider price id to bill for the given tier
// and cycle. Plans without a provisioned price id cannot be checked out.
func (s *planCatalogService) PriceIDForPlan(ctx context.Context, planType types.PlanType, cycle types.BillingCycle) (string, error) {
	plan, err := s.GetPlan(ctx, planType)
	if err != nil {
		return "", err
	}

	priceID := plan.PriceID(cycle)
	if priceID == "" {
		return "", ierr.NewError("plan has no provider price configured").
			WithHint("The plan cannot be purchased until its price is provisioned").
			WithReportableDetails(map[string]any{
				"plan_type":     planType,
				"billing_cycle": cycle,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return priceID, nil
}
