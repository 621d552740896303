package service

import (
	"testing"

	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/testutil"
	"github.com/docuchat/billing/internal/types"
	"github.com/stretchr/testify/suite"
)

type PlanCatalogServiceSuite struct {
	testutil.BaseServiceTestSuite
	planCatalog PlanCatalogService
	planStore   *testutil.InMemoryPricingPlanStore
}

func TestPlanCatalogService(t *testing.T) {
	suite.Run(t, new(PlanCatalogServiceSuite))
}

func (s *PlanCatalogServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.planCatalog = NewPlanCatalogService(testServiceParams(&s.BaseServiceTestSuite))
	s.planStore = s.GetStores().PricingPlanRepo.(*testutil.InMemoryPricingPlanStore)
	seedCatalog(s.GetContext(), s.planStore)
}

func (s *PlanCatalogServiceSuite) TestListPlans() {
	resp, err := s.planCatalog.ListPlans(s.GetContext())
	s.NoError(err)
	s.Equal(4, resp.Total)
	s.Equal(types.PlanTypeFree, resp.Plans[0].PlanType)
	s.Equal(types.PlanTypeEnterprise, resp.Plans[3].PlanType)
}

func (s *PlanCatalogServiceSuite) TestGetPlan() {
	plan, err := s.planCatalog.GetPlan(s.GetContext(), types.PlanTypeStarter)
	s.NoError(err)
	s.Equal(types.PlanTypeStarter, plan.PlanType)
	s.NotEmpty(plan.Features)

	_, err = s.planCatalog.GetPlan(s.GetContext(), types.PlanType("gold"))
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *PlanCatalogServiceSuite) TestCachedSnapshotServesDatabaseOutage() {
	// Warm the snapshot with a live read.
	resp, err := s.planCatalog.ListPlans(s.GetContext())
	s.NoError(err)
	s.Equal(4, resp.Total)

	s.planStore.FailList = true

	resp, err = s.planCatalog.ListPlans(s.GetContext())
	s.NoError(err)
	s.Equal(4, resp.Total)

	// Price ids seeded into the store survive through the snapshot.
	planType, found := s.planCatalog.ResolvePlanTypeByPriceID(s.GetContext(), "price_professional_monthly")
	s.True(found)
	s.Equal(types.PlanTypeProfessional, planType)
}

func (s *PlanCatalogServiceSuite) TestDefaultCatalogServesColdOutage() {
	// No warm read happened: the database is down and the cache is empty.
	s.planStore.FailList = true

	resp, err := s.planCatalog.ListPlans(s.GetContext())
	s.NoError(err)
	s.Equal(4, resp.Total)

	// The static fallback has no provider price ids, so resolution by price
	// id misses and checkout is refused.
	_, found := s.planCatalog.ResolvePlanTypeByPriceID(s.GetContext(), "price_professional_monthly")
	s.False(found)

	_, err = s.planCatalog.PriceIDForPlan(s.GetContext(), types.PlanTypeProfessional, types.BillingCycleMonthly)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *PlanCatalogServiceSuite) TestResolvePlanTypeByPriceID() {
	testCases := []struct {
		name      string
		priceID   string
		wantPlan  types.PlanType
		wantFound bool
	}{
		{"monthly price", "price_starter_monthly", types.PlanTypeStarter, true},
		{"yearly price", "price_enterprise_yearly", types.PlanTypeEnterprise, true},
		{"unknown price", "price_legacy_2019", "", false},
		{"empty price", "", "", false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			planType, found := s.planCatalog.ResolvePlanTypeByPriceID(s.GetContext(), tc.priceID)
			s.Equal(tc.wantFound, found)
			s.Equal(tc.wantPlan, planType)
		})
	}
}

func (s *PlanCatalogServiceSuite) TestPriceIDForPlan() {
	priceID, err := s.planCatalog.PriceIDForPlan(s.GetContext(), types.PlanTypeStarter, types.BillingCycleMonthly)
	s.NoError(err)
	s.Equal("price_starter_monthly", priceID)

	priceID, err = s.planCatalog.PriceIDForPlan(s.GetContext(), types.PlanTypeStarter, types.BillingCycleYearly)
	s.NoError(err)
	s.Equal("price_starter_yearly", priceID)

	// The free tier has no provider price to bill.
	_, err = s.planCatalog.PriceIDForPlan(s.GetContext(), types.PlanTypeFree, types.BillingCycleMonthly)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
