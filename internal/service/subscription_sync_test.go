package service

import (
	"context"
	"testing"
	"time"

	"github.com/docuchat/billing/internal/domain/organization"
	"github.com/docuchat/billing/internal/domain/pricingplan"
	"github.com/docuchat/billing/internal/domain/subscription"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/testutil"
	"github.com/docuchat/billing/internal/types"
	"github.com/samber/lo"
	stripesdk "github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/suite"
)

// testServiceParams assembles ServiceParams from the base suite's in-memory
// stores and fake gateway.
func testServiceParams(base *testutil.BaseServiceTestSuite) ServiceParams {
	stores := base.GetStores()
	return ServiceParams{
		Logger:           base.GetLogger(),
		Config:           base.GetConfig(),
		DB:               base.GetDB(),
		Cache:            base.GetCache(),
		OrganizationRepo: stores.OrganizationRepo,
		SubscriptionRepo: stores.SubscriptionRepo,
		BillingEventRepo: stores.BillingEventRepo,
		PricingPlanRepo:  stores.PricingPlanRepo,
		Gateway:          base.GetGateway(),
	}
}

// seedCatalog loads the default catalog into the plan store with provider
// price ids provisioned for every paid tier.
func seedCatalog(ctx context.Context, repo pricingplan.Repository) {
	for _, plan := range pricingplan.DefaultCatalog() {
		if plan.PlanType != types.PlanTypeFree {
			plan.StripeMonthlyPriceID = "price_" + string(plan.PlanType) + "_monthly"
			plan.StripeYearlyPriceID = "price_" + string(plan.PlanType) + "_yearly"
		}
		plan.BaseModel = types.GetDefaultBaseModel(ctx)
		_ = repo.Create(ctx, plan)
	}
}

func newProviderDownErr() error {
	return ierr.NewError("provider unavailable").
		WithHint("The payment provider could not be reached").
		Mark(ierr.ErrProviderAPI)
}

// providerSubscription builds a minimal provider subscription object with a
// single item, the way the gateway returns them.
func providerSubscription(id string, status stripesdk.SubscriptionStatus, priceID string) *stripesdk.Subscription {
	now := time.Now().UTC()
	return &stripesdk.Subscription{
		ID:       id,
		Status:   status,
		Created:  now.Unix(),
		Metadata: map[string]string{},
		Items: &stripesdk.SubscriptionItemList{
			Data: []*stripesdk.SubscriptionItem{
				{
					CurrentPeriodStart: now.Unix(),
					CurrentPeriodEnd:   now.Add(30 * 24 * time.Hour).Unix(),
					Price: &stripesdk.Price{
						ID:         priceID,
						UnitAmount: 9900,
						Currency:   stripesdk.CurrencyUSD,
					},
				},
			},
		},
	}
}

type SubscriptionSyncServiceSuite struct {
	testutil.BaseServiceTestSuite
	syncService SubscriptionSyncService
	planCatalog PlanCatalogService
	org         *organization.Organization
}

func TestSubscriptionSyncService(t *testing.T) {
	suite.Run(t, new(SubscriptionSyncServiceSuite))
}

func (s *SubscriptionSyncServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	params := testServiceParams(&s.BaseServiceTestSuite)
	s.planCatalog = NewPlanCatalogService(params)
	s.syncService = NewSubscriptionSyncService(params, s.planCatalog)

	seedCatalog(s.GetContext(), s.GetStores().PricingPlanRepo)

	s.org = &organization.Organization{
		ID:               "org_sync_test",
		Name:             "Sync Test Org",
		StripeCustomerID: lo.ToPtr("cus_sync_test"),
		BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().OrganizationRepo.Create(s.GetContext(), s.org))
}

func (s *SubscriptionSyncServiceSuite) seedLocalSubscription(stripeSubID string, planType types.PlanType, status types.SubscriptionStatus) *subscription.Subscription {
	sub := &subscription.Subscription{
		ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		OrganizationID:       s.org.ID,
		StripeSubscriptionID: stripeSubID,
		PlanType:             planType,
		SubscriptionStatus:   status,
		Currency:             "usd",
		BaseModel:            types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(s.GetContext(), sub))
	return sub
}

func (s *SubscriptionSyncServiceSuite) TestSyncCreatesRow() {
	stripeSub := providerSubscription("sub_new", stripesdk.SubscriptionStatusActive, "price_professional_monthly")

	synced, err := s.syncService.SyncSubscriptionToDatabase(s.GetContext(), stripeSub, s.org.ID)
	s.NoError(err)
	s.NotNil(synced)
	s.Equal(types.PlanTypeProfessional, synced.PlanType)
	s.Equal(types.SubscriptionStatusActive, synced.SubscriptionStatus)
	s.Equal("99", synced.Amount.String())
	s.Equal("usd", synced.Currency)
	s.NotNil(synced.CurrentPeriodStart)
	s.NotNil(synced.CurrentPeriodEnd)
	s.NotEmpty(synced.Features)
	s.NotEmpty(synced.Limits)

	stored, err := s.GetStores().SubscriptionRepo.GetByStripeSubscriptionID(s.GetContext(), "sub_new")
	s.NoError(err)
	s.Equal(synced.ID, stored.ID)
}

func (s *SubscriptionSyncServiceSuite) TestSyncUpdatesExistingRow() {
	stripeSub := providerSubscription("sub_upd", stripesdk.SubscriptionStatusActive, "price_starter_monthly")
	first, err := s.syncService.SyncSubscriptionToDatabase(s.GetContext(), stripeSub, s.org.ID)
	s.NoError(err)

	stripeSub.Status = stripesdk.SubscriptionStatusCanceled
	stripeSub.CancelAtPeriodEnd = true
	stripeSub.CanceledAt = time.Now().UTC().Unix()

	second, err := s.syncService.SyncSubscriptionToDatabase(s.GetContext(), stripeSub, s.org.ID)
	s.NoError(err)
	s.Equal(first.ID, second.ID)
	s.Equal(types.SubscriptionStatusCancelled, second.SubscriptionStatus)
	s.True(second.CancelAtPeriodEnd)
	s.NotNil(second.CancelledAt)

	subs, err := s.GetStores().SubscriptionRepo.List(s.GetContext(), &types.SubscriptionFilter{OrganizationID: s.org.ID})
	s.NoError(err)
	s.Len(subs, 1)
}

func (s *SubscriptionSyncServiceSuite) TestStatusMapping() {
	testCases := []struct {
		provider stripesdk.SubscriptionStatus
		want     types.SubscriptionStatus
	}{
		{stripesdk.SubscriptionStatusActive, types.SubscriptionStatusActive},
		{stripesdk.SubscriptionStatusTrialing, types.SubscriptionStatusTrialing},
		{stripesdk.SubscriptionStatusPastDue, types.SubscriptionStatusPastDue},
		{stripesdk.SubscriptionStatusCanceled, types.SubscriptionStatusCancelled},
		{stripesdk.SubscriptionStatusUnpaid, types.SubscriptionStatusUnpaid},
		{stripesdk.SubscriptionStatusIncomplete, types.SubscriptionStatusIncomplete},
		{stripesdk.SubscriptionStatusIncompleteExpired, types.SubscriptionStatusIncompleteExpired},
		{stripesdk.SubscriptionStatusPaused, types.SubscriptionStatusPaused},
		// Statuses the provider introduces later degrade to active rather
		// than locking the customer out.
		{stripesdk.SubscriptionStatus("brand_new_status"), types.SubscriptionStatusActive},
	}

	for i, tc := range testCases {
		s.Run(string(tc.provider), func() {
			stripeSub := providerSubscription(
				"sub_status_"+types.GenerateUUID(),
				tc.provider,
				"price_starter_monthly",
			)
			synced, err := s.syncService.SyncSubscriptionToDatabase(s.GetContext(), stripeSub, s.org.ID)
			s.NoError(err)
			s.Equal(tc.want, synced.SubscriptionStatus, "case %d", i)
		})
	}
}

func (s *SubscriptionSyncServiceSuite) TestPlanResolution() {
	s.Run("metadata wins over price id", func() {
		stripeSub := providerSubscription("sub_meta", stripesdk.SubscriptionStatusActive, "price_starter_monthly")
		stripeSub.Metadata[types.MetadataKeyPlanType] = string(types.PlanTypeEnterprise)

		synced, err := s.syncService.SyncSubscriptionToDatabase(s.GetContext(), stripeSub, s.org.ID)
		s.NoError(err)
		s.Equal(types.PlanTypeEnterprise, synced.PlanType)
	})

	s.Run("invalid metadata falls back to price id", func() {
		stripeSub := providerSubscription("sub_badmeta", stripesdk.SubscriptionStatusActive, "price_professional_monthly")
		stripeSub.Metadata[types.MetadataKeyPlanType] = "galactic"

		synced, err := s.syncService.SyncSubscriptionToDatabase(s.GetContext(), stripeSub, s.org.ID)
		s.NoError(err)
		s.Equal(types.PlanTypeProfessional, synced.PlanType)
	})

	s.Run("unknown price id falls back to default", func() {
		stripeSub := providerSubscription("sub_unkprice", stripesdk.SubscriptionStatusActive, "price_legacy_2019")

		synced, err := s.syncService.SyncSubscriptionToDatabase(s.GetContext(), stripeSub, s.org.ID)
		s.NoError(err)
		s.Equal(types.DefaultPlanType, synced.PlanType)
	})

	s.Run("no items falls back to default", func() {
		stripeSub := providerSubscription("sub_noitems", stripesdk.SubscriptionStatusActive, "")
		stripeSub.Items = nil

		synced, err := s.syncService.SyncSubscriptionToDatabase(s.GetContext(), stripeSub, s.org.ID)
		s.NoError(err)
		s.Equal(types.DefaultPlanType, synced.PlanType)
	})
}

func (s *SubscriptionSyncServiceSuite) TestOrganizationPlanRepair() {
	stripeSub := providerSubscription("sub_repair", stripesdk.SubscriptionStatusActive, "price_professional_monthly")
	_, err := s.syncService.SyncSubscriptionToDatabase(s.GetContext(), stripeSub, s.org.ID)
	s.NoError(err)

	org, err := s.GetStores().OrganizationRepo.Get(s.GetContext(), s.org.ID)
	s.NoError(err)
	s.NotNil(org.PlanType)
	s.Equal(types.PlanTypeProfessional, *org.PlanType)
	s.NotNil(org.SubscriptionStatus)
	s.Equal(types.SubscriptionStatusActive, *org.SubscriptionStatus)

	// Cancelling the subscription clears the mirror.
	stripeSub.Status = stripesdk.SubscriptionStatusCanceled
	_, err = s.syncService.SyncSubscriptionToDatabase(s.GetContext(), stripeSub, s.org.ID)
	s.NoError(err)

	org, err = s.GetStores().OrganizationRepo.Get(s.GetContext(), s.org.ID)
	s.NoError(err)
	s.Nil(org.PlanType)
	s.Nil(org.SubscriptionStatus)
}

func (s *SubscriptionSyncServiceSuite) TestCleanupExistingSubscriptions() {
	gateway := s.GetGateway()
	gateway.Subscriptions["cus_sync_test"] = []*stripesdk.Subscription{
		providerSubscription("sub_keep", stripesdk.SubscriptionStatusActive, "price_professional_monthly"),
		providerSubscription("sub_extra", stripesdk.SubscriptionStatusActive, "price_starter_monthly"),
		providerSubscription("sub_gone", stripesdk.SubscriptionStatusCanceled, "price_starter_monthly"),
	}
	keep := s.seedLocalSubscription("sub_keep", types.PlanTypeProfessional, types.SubscriptionStatusActive)
	s.seedLocalSubscription("sub_extra", types.PlanTypeStarter, types.SubscriptionStatusActive)

	result, err := s.syncService.CleanupExistingSubscriptions(s.GetContext(), s.org.ID, "cus_sync_test", "sub_keep")
	s.NoError(err)
	s.False(result.HasErrors())
	// One provider cancel (sub_extra; sub_gone is already terminal) and one
	// local cancel.
	s.Equal(2, result.CleanedCount)
	s.Equal(1, gateway.Calls("CancelSubscription"))

	kept, err := s.GetStores().SubscriptionRepo.GetByStripeSubscriptionID(s.GetContext(), "sub_keep")
	s.NoError(err)
	s.Equal(keep.ID, kept.ID)
	s.Equal(types.SubscriptionStatusActive, kept.SubscriptionStatus)

	extra, err := s.GetStores().SubscriptionRepo.GetByStripeSubscriptionID(s.GetContext(), "sub_extra")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, extra.SubscriptionStatus)
	s.True(extra.CancelAtPeriodEnd)
	s.NotNil(extra.CancelledAt)
}

func (s *SubscriptionSyncServiceSuite) TestCleanupCollectsProviderErrors() {
	gateway := s.GetGateway()
	gateway.Subscriptions["cus_sync_test"] = []*stripesdk.Subscription{
		providerSubscription("sub_stuck", stripesdk.SubscriptionStatusActive, "price_starter_monthly"),
	}
	gateway.CancelErr = newProviderDownErr()
	s.seedLocalSubscription("sub_stuck", types.PlanTypeStarter, types.SubscriptionStatusActive)

	result, err := s.syncService.CleanupExistingSubscriptions(s.GetContext(), s.org.ID, "cus_sync_test", "")
	s.NoError(err)
	s.True(result.HasErrors())
	s.Len(result.Errors, 1)

	// The provider cancel failed but the local row is still cancelled.
	s.Equal(1, result.CleanedCount)
	local, err := s.GetStores().SubscriptionRepo.GetByStripeSubscriptionID(s.GetContext(), "sub_stuck")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, local.SubscriptionStatus)
}

func (s *SubscriptionSyncServiceSuite) TestGetCurrentSubscriptionFreshSkipsProvider() {
	s.org.PlanType = lo.ToPtr(types.PlanTypeProfessional)
	s.NoError(s.GetStores().OrganizationRepo.Update(s.GetContext(), s.org))
	s.seedLocalSubscription("sub_fresh", types.PlanTypeProfessional, types.SubscriptionStatusActive)

	resp, err := s.syncService.GetCurrentSubscription(s.GetContext(), s.org.ID, 5*time.Minute, false)
	s.NoError(err)
	s.False(resp.Synced)
	s.Equal(types.PlanTypeProfessional, resp.PlanType)
	s.NotNil(resp.Subscription)
	s.Equal(0, s.GetGateway().Calls("ListSubscriptions"))
}

func (s *SubscriptionSyncServiceSuite) TestGetCurrentSubscriptionStaleSyncs() {
	local := s.seedLocalSubscription("sub_stale", types.PlanTypeStarter, types.SubscriptionStatusTrialing)
	local.UpdatedAt = time.Now().UTC().Add(-time.Hour)

	s.GetGateway().Subscriptions["cus_sync_test"] = []*stripesdk.Subscription{
		providerSubscription("sub_stale", stripesdk.SubscriptionStatusActive, "price_professional_monthly"),
	}

	resp, err := s.syncService.GetCurrentSubscription(s.GetContext(), s.org.ID, 5*time.Minute, false)
	s.NoError(err)
	s.True(resp.Synced)
	s.Equal(types.PlanTypeProfessional, resp.PlanType)
	s.Equal(1, s.GetGateway().Calls("ListSubscriptions"))

	stored, err := s.GetStores().SubscriptionRepo.GetByStripeSubscriptionID(s.GetContext(), "sub_stale")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, stored.SubscriptionStatus)
	s.Equal(types.PlanTypeProfessional, stored.PlanType)
}

func (s *SubscriptionSyncServiceSuite) TestGetCurrentSubscriptionForceBypassesFreshness() {
	s.seedLocalSubscription("sub_forced", types.PlanTypeStarter, types.SubscriptionStatusActive)
	s.GetGateway().Subscriptions["cus_sync_test"] = []*stripesdk.Subscription{
		providerSubscription("sub_forced", stripesdk.SubscriptionStatusActive, "price_starter_monthly"),
	}

	resp, err := s.syncService.GetCurrentSubscription(s.GetContext(), s.org.ID, 5*time.Minute, true)
	s.NoError(err)
	s.True(resp.Synced)
	s.Equal(1, s.GetGateway().Calls("ListSubscriptions"))
}

func (s *SubscriptionSyncServiceSuite) TestGetCurrentSubscriptionCancelsExtraProviderSubs() {
	local := s.seedLocalSubscription("sub_keep", types.PlanTypeStarter, types.SubscriptionStatusActive)
	local.UpdatedAt = time.Now().UTC().Add(-time.Hour)

	s.GetGateway().Subscriptions["cus_sync_test"] = []*stripesdk.Subscription{
		providerSubscription("sub_keep", stripesdk.SubscriptionStatusActive, "price_professional_monthly"),
		providerSubscription("sub_extra", stripesdk.SubscriptionStatusActive, "price_starter_monthly"),
	}

	resp, err := s.syncService.GetCurrentSubscription(s.GetContext(), s.org.ID, 5*time.Minute, false)
	s.NoError(err)
	s.True(resp.Synced)
	s.Equal(types.PlanTypeProfessional, resp.PlanType)

	// Reconciling the extra row reuses the list fetched for canonical
	// selection instead of listing again.
	s.Equal(1, s.GetGateway().Calls("ListSubscriptions"))
	s.Equal(1, s.GetGateway().Calls("CancelSubscription"))
}

func (s *SubscriptionSyncServiceSuite) TestGetCurrentSubscriptionProviderEmptyClearsLocal() {
	s.org.PlanType = lo.ToPtr(types.PlanTypeStarter)
	s.org.SubscriptionStatus = lo.ToPtr(types.SubscriptionStatusActive)
	s.NoError(s.GetStores().OrganizationRepo.Update(s.GetContext(), s.org))
	local := s.seedLocalSubscription("sub_ghost", types.PlanTypeStarter, types.SubscriptionStatusActive)
	local.UpdatedAt = time.Now().UTC().Add(-time.Hour)

	resp, err := s.syncService.GetCurrentSubscription(s.GetContext(), s.org.ID, 5*time.Minute, false)
	s.NoError(err)
	s.True(resp.Synced)
	s.Nil(resp.Subscription)
	s.Equal(types.PlanTypeFree, resp.PlanType)

	stored, err := s.GetStores().SubscriptionRepo.GetByStripeSubscriptionID(s.GetContext(), "sub_ghost")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusCancelled, stored.SubscriptionStatus)

	org, err := s.GetStores().OrganizationRepo.Get(s.GetContext(), s.org.ID)
	s.NoError(err)
	s.Nil(org.PlanType)
	s.Nil(org.SubscriptionStatus)
}

func (s *SubscriptionSyncServiceSuite) TestGetCurrentSubscriptionWithoutCustomer() {
	s.org.StripeCustomerID = nil
	s.NoError(s.GetStores().OrganizationRepo.Update(s.GetContext(), s.org))

	resp, err := s.syncService.GetCurrentSubscription(s.GetContext(), s.org.ID, 0, true)
	s.NoError(err)
	s.False(resp.Synced)
	s.Nil(resp.Subscription)
	s.Equal(types.PlanTypeFree, resp.PlanType)
	s.Equal(0, s.GetGateway().Calls("ListSubscriptions"))
}

func (s *SubscriptionSyncServiceSuite) TestGetCurrentSubscriptionUnconfiguredGateway() {
	s.GetGateway().NotConfigured = true
	s.seedLocalSubscription("sub_offline", types.PlanTypeStarter, types.SubscriptionStatusActive)

	resp, err := s.syncService.GetCurrentSubscription(s.GetContext(), s.org.ID, 0, true)
	s.NoError(err)
	s.False(resp.Synced)
	s.NotNil(resp.Subscription)
	s.Equal(0, s.GetGateway().Calls("ListSubscriptions"))
}

func (s *SubscriptionSyncServiceSuite) TestSelectCanonical() {
	active := providerSubscription("sub_a", stripesdk.SubscriptionStatusActive, "")
	trialing := providerSubscription("sub_t", stripesdk.SubscriptionStatusTrialing, "")
	pastDueOld := providerSubscription("sub_pd1", stripesdk.SubscriptionStatusPastDue, "")
	pastDueOld.Created = 100
	pastDueNew := providerSubscription("sub_pd2", stripesdk.SubscriptionStatusPastDue, "")
	pastDueNew.Created = 200
	canceled := providerSubscription("sub_c", stripesdk.SubscriptionStatusCanceled, "")

	testCases := []struct {
		name string
		subs []*stripesdk.Subscription
		want *stripesdk.Subscription
	}{
		{"active wins", []*stripesdk.Subscription{pastDueNew, trialing, active}, active},
		{"trialing beats past_due", []*stripesdk.Subscription{pastDueNew, trialing}, trialing},
		{"most recent past_due", []*stripesdk.Subscription{pastDueOld, pastDueNew}, pastDueNew},
		{"terminal only", []*stripesdk.Subscription{canceled}, nil},
		{"empty", nil, nil},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.want, selectCanonical(tc.subs))
		})
	}
}
