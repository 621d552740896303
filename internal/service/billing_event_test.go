package service

import (
	stdjson "encoding/json"
	"testing"

	"github.com/docuchat/billing/internal/api/dto"
	"github.com/docuchat/billing/internal/domain/organization"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/testutil"
	"github.com/docuchat/billing/internal/types"
	"github.com/samber/lo"
	stripesdk "github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/suite"
)

type BillingEventServiceSuite struct {
	testutil.BaseServiceTestSuite
	eventService BillingEventService
	syncService  SubscriptionSyncService
	org          *organization.Organization
}

func TestBillingEventService(t *testing.T) {
	suite.Run(t, new(BillingEventServiceSuite))
}

func (s *BillingEventServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	params := testServiceParams(&s.BaseServiceTestSuite)
	planCatalog := NewPlanCatalogService(params)
	s.syncService = NewSubscriptionSyncService(params, planCatalog)
	s.eventService = NewBillingEventService(params, s.syncService)

	seedCatalog(s.GetContext(), s.GetStores().PricingPlanRepo)

	s.org = &organization.Organization{
		ID:               "org_event_test",
		Name:             "Event Test Org",
		StripeCustomerID: lo.ToPtr("cus_event_test"),
		BaseModel:        types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.GetStores().OrganizationRepo.Create(s.GetContext(), s.org))
}

// subscriptionPayload is a trimmed provider webhook body carrying only the
// fields the handlers read.
func (s *BillingEventServiceSuite) subscriptionPayload(subID string, status string) stdjson.RawMessage {
	return stdjson.RawMessage(`{
		"id": "` + subID + `",
		"status": "` + status + `",
		"metadata": {"organization_id": "` + s.org.ID + `"},
		"items": {"data": [{
			"current_period_start": 1700000000,
			"current_period_end": 1702592000,
			"price": {"id": "price_professional_monthly", "unit_amount": 9900, "currency": "usd"}
		}]}
	}`)
}

func (s *BillingEventServiceSuite) TestSubscriptionEventProcessedOnce() {
	req := &dto.BillingEventRequest{
		EventID:   "evt_123",
		EventType: string(types.WebhookEventTypeSubscriptionCreated),
		Payload:   s.subscriptionPayload("sub_evt", "active"),
	}

	resp, err := s.eventService.RecordAndDispatch(s.GetContext(), req)
	s.NoError(err)
	s.True(resp.Processed)
	s.False(resp.AlreadyProcessed)

	synced, err := s.GetStores().SubscriptionRepo.GetByStripeSubscriptionID(s.GetContext(), "sub_evt")
	s.NoError(err)
	s.Equal(types.PlanTypeProfessional, synced.PlanType)
	s.Equal(types.SubscriptionStatusActive, synced.SubscriptionStatus)

	event, err := s.GetStores().BillingEventRepo.GetByEventID(s.GetContext(), "evt_123")
	s.NoError(err)
	s.True(event.Processed)
	s.NotNil(event.ProcessedAt)
	s.Equal(0, event.RetryCount)

	// Replaying the same delivery is a no-op.
	resp, err = s.eventService.RecordAndDispatch(s.GetContext(), req)
	s.NoError(err)
	s.True(resp.AlreadyProcessed)

	events, err := s.GetStores().BillingEventRepo.List(s.GetContext(), &types.BillingEventFilter{})
	s.NoError(err)
	s.Len(events, 1)

	subs, err := s.GetStores().SubscriptionRepo.List(s.GetContext(), &types.SubscriptionFilter{OrganizationID: s.org.ID})
	s.NoError(err)
	s.Len(subs, 1)
}

func (s *BillingEventServiceSuite) TestHandlerFailureRecorded() {
	// No metadata and no customer: the event cannot be attributed.
	req := &dto.BillingEventRequest{
		EventID:   "evt_orphan",
		EventType: string(types.WebhookEventTypeSubscriptionUpdated),
		Payload:   stdjson.RawMessage(`{"id": "sub_orphan", "status": "active"}`),
	}

	_, err := s.eventService.RecordAndDispatch(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))

	event, getErr := s.GetStores().BillingEventRepo.GetByEventID(s.GetContext(), "evt_orphan")
	s.NoError(getErr)
	s.False(event.Processed)
	s.NotNil(event.ProcessingError)
	s.Equal(1, event.RetryCount)
}

func (s *BillingEventServiceSuite) TestUnknownEventTypeIgnored() {
	req := &dto.BillingEventRequest{
		EventID:   "evt_unknown",
		EventType: "customer.created",
		Payload:   stdjson.RawMessage(`{"id": "cus_whatever"}`),
	}

	resp, err := s.eventService.RecordAndDispatch(s.GetContext(), req)
	s.NoError(err)
	s.True(resp.Processed)
	s.False(resp.AlreadyProcessed)

	event, err := s.GetStores().BillingEventRepo.GetByEventID(s.GetContext(), "evt_unknown")
	s.NoError(err)
	s.True(event.Processed)
}

func (s *BillingEventServiceSuite) TestCheckoutSessionCompletedTriggersSync() {
	s.GetGateway().Subscriptions["cus_event_test"] = []*stripesdk.Subscription{
		providerSubscription("sub_from_checkout", stripesdk.SubscriptionStatusActive, "price_professional_monthly"),
	}

	req := &dto.BillingEventRequest{
		EventID:   "evt_checkout",
		EventType: string(types.WebhookEventTypeCheckoutSessionComplete),
		Payload:   stdjson.RawMessage(`{"id": "cs_1", "metadata": {"organization_id": "` + s.org.ID + `"}}`),
	}

	resp, err := s.eventService.RecordAndDispatch(s.GetContext(), req)
	s.NoError(err)
	s.True(resp.Processed)

	synced, err := s.GetStores().SubscriptionRepo.GetByStripeSubscriptionID(s.GetContext(), "sub_from_checkout")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, synced.SubscriptionStatus)

	org, err := s.GetStores().OrganizationRepo.Get(s.GetContext(), s.org.ID)
	s.NoError(err)
	s.NotNil(org.PlanType)
	s.Equal(types.PlanTypeProfessional, *org.PlanType)
}

func (s *BillingEventServiceSuite) TestInvoicePaymentFailedResolvesByCustomer() {
	s.GetGateway().Subscriptions["cus_event_test"] = []*stripesdk.Subscription{
		providerSubscription("sub_past_due", stripesdk.SubscriptionStatusPastDue, "price_starter_monthly"),
	}

	req := &dto.BillingEventRequest{
		EventID:   "evt_invoice",
		EventType: string(types.WebhookEventTypeInvoicePaymentFailed),
		Payload:   stdjson.RawMessage(`{"id": "in_1", "customer": "cus_event_test"}`),
	}

	resp, err := s.eventService.RecordAndDispatch(s.GetContext(), req)
	s.NoError(err)
	s.True(resp.Processed)

	synced, err := s.GetStores().SubscriptionRepo.GetByStripeSubscriptionID(s.GetContext(), "sub_past_due")
	s.NoError(err)
	s.Equal(types.SubscriptionStatusPastDue, synced.SubscriptionStatus)
}

func (s *BillingEventServiceSuite) TestMalformedPayloadFails() {
	req := &dto.BillingEventRequest{
		EventID:   "evt_garbage",
		EventType: string(types.WebhookEventTypeSubscriptionCreated),
		Payload:   stdjson.RawMessage(`not json at all`),
	}

	_, err := s.eventService.RecordAndDispatch(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *BillingEventServiceSuite) TestMissingEventIDRejected() {
	req := &dto.BillingEventRequest{
		EventType: string(types.WebhookEventTypeSubscriptionCreated),
		Payload:   stdjson.RawMessage(`{}`),
	}

	_, err := s.eventService.RecordAndDispatch(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))

	events, err := s.GetStores().BillingEventRepo.List(s.GetContext(), &types.BillingEventFilter{})
	s.NoError(err)
	s.Empty(events)
}
