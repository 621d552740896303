package testutil

import (
	"context"

	"github.com/docuchat/billing/internal/domain/pricingplan"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/types"
)

// InMemoryPricingPlanStore implements pricingplan.Repository. Set FailList
// to simulate a database outage on the catalog read path.
type InMemoryPricingPlanStore struct {
	*InMemoryStore[*pricingplan.PricingPlan]

	FailList bool
}

func NewInMemoryPricingPlanStore() *InMemoryPricingPlanStore {
	return &InMemoryPricingPlanStore{
		InMemoryStore: NewInMemoryStore[*pricingplan.PricingPlan](),
	}
}

func (s *InMemoryPricingPlanStore) Create(ctx context.Context, plan *pricingplan.PricingPlan) error {
	if err := s.InMemoryStore.Create(ctx, plan.ID, plan); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryPricingPlanStore) GetByPlanType(ctx context.Context, planType string) (*pricingplan.PricingPlan, error) {
	plans, _ := s.InMemoryStore.List(ctx, nil, func(_ context.Context, plan *pricingplan.PricingPlan, _ interface{}) bool {
		return string(plan.PlanType) == planType && plan.Status == types.StatusPublished
	}, nil)
	if len(plans) == 0 {
		return nil, ierr.NewError("pricing plan not found").
			Mark(ierr.ErrNotFound)
	}
	return plans[0], nil
}

func (s *InMemoryPricingPlanStore) List(ctx context.Context) ([]*pricingplan.PricingPlan, error) {
	if s.FailList {
		return nil, ierr.NewError("database unavailable").
			Mark(ierr.ErrDatabase)
	}
	return s.InMemoryStore.List(ctx, nil, func(_ context.Context, plan *pricingplan.PricingPlan, _ interface{}) bool {
		return plan.Status == types.StatusPublished
	}, func(i, j *pricingplan.PricingPlan) bool {
		return i.DisplayOrder < j.DisplayOrder
	})
}

func (s *InMemoryPricingPlanStore) Update(ctx context.Context, plan *pricingplan.PricingPlan) error {
	plan.Touch(ctx)
	if err := s.InMemoryStore.Update(ctx, plan.ID, plan); err != nil {
		return ierr.NewError("pricing plan not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}
