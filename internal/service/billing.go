package service

import (
	"context"

	"github.com/docuchat/billing/internal/api/dto"
	"github.com/docuchat/billing/internal/domain/organization"
	"github.com/docuchat/billing/internal/domain/subscription"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/integration/stripe"
	"github.com/docuchat/billing/internal/types"
	"github.com/docuchat/billing/internal/worker"
)

// BillingService drives user-triggered mutations: checkout, plan change,
// cancellation and reactivation. It sequences the duplicate-plan guard,
// customer provisioning, cleanup, the provider call and the post-mutation
// background sync.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, organizationID string, req *dto.CreateCheckoutSessionRequest) (*dto.CheckoutSessionResponse, error)
	ChangePlan(ctx context.Context, organizationID string, req *dto.ChangePlanRequest) (*dto.CheckoutSessionResponse, error)
	CancelSubscription(ctx context.Context, organizationID string) (*dto.SubscriptionResponse, error)
	ReactivateSubscription(ctx context.Context, organizationID string) (*dto.SubscriptionResponse, error)
	GetCurrentSubscription(ctx context.Context, organizationID string, force bool) (*dto.CurrentSubscriptionResponse, error)
}

type billingService struct {
	ServiceParams
	planCatalog PlanCatalogService
	syncService SubscriptionSyncService
	scheduler   *worker.SyncScheduler
}

func NewBillingService(
	params ServiceParams,
	planCatalog PlanCatalogService,
	syncService SubscriptionSyncService,
	scheduler *worker.SyncScheduler,
) BillingService {
	return &billingService{
		ServiceParams: params,
		planCatalog:   planCatalog,
		syncService:   syncService,
		scheduler:     scheduler,
	}
}

func (s *billingService) CreateCheckoutSession(ctx context.Context, organizationID string, req *dto.CreateCheckoutSessionRequest) (*dto.CheckoutSessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.startCheckout(ctx, organizationID, req.PlanType, req.BillingCycle, req.SuccessURL, req.CancelURL)
}

func (s *billingService) ChangePlan(ctx context.Context, organizationID string, req *dto.ChangePlanRequest) (*dto.CheckoutSessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.startCheckout(ctx, organizationID, req.PlanType, req.BillingCycle, req.SuccessURL, req.CancelURL)
}

// startCheckout is the shared create/change path. The duplicate-plan guard
// runs before anything touches the provider, so a rejected request makes
// zero provider calls.
func (s *billingService) startCheckout(ctx context.Context, organizationID string, planType types.PlanType, cycle types.BillingCycle, successURL, cancelURL string) (*dto.CheckoutSessionResponse, error) {
	org, err := s.OrganizationRepo.Get(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	current, err := s.currentActiveSubscription(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if current != nil && current.PlanType == planType {
		return nil, ierr.NewError("organization already subscribed to this plan").
			WithHint("Pick a different plan or manage the existing subscription").
			WithReportableDetails(map[string]any{
				"organization_id": organizationID,
				"plan_type":       planType,
			}).
			Mark(ierr.ErrDuplicatePlan)
	}

	if !s.Gateway.Configured() {
		return nil, ierr.NewError("payment provider not configured").
			WithHint("Stripe credentials are not set for this deployment").
			Mark(ierr.ErrProviderNotConfigured)
	}

	priceID, err := s.planCatalog.PriceIDForPlan(ctx, planType, cycle)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureStripeCustomer(ctx, org)
	if err != nil {
		return nil, err
	}

	// Best effort: a failed cancellation leaves a transient extra
	// subscription rather than blocking the upgrade.
	cleanup, err := s.syncService.CleanupExistingSubscriptions(ctx, organizationID, customerID, "")
	if err != nil {
		return nil, err
	}
	if cleanup.HasErrors() {
		s.Logger.Warnw("partial cleanup failure before checkout",
			"organization_id", organizationID,
			"errors", cleanup.Errors,
		)
	}

	session, err := s.Gateway.CreateCheckoutSession(ctx, stripe.CheckoutParams{
		CustomerID:     customerID,
		PriceID:        priceID,
		OrganizationID: organizationID,
		PlanType:       planType,
		SuccessURL:     successURL,
		CancelURL:      cancelURL,
	})
	if err != nil {
		return nil, err
	}

	s.scheduler.ScheduleSync(organizationID, worker.ScheduleOptions{})

	s.Logger.Infow("created checkout session",
		"organization_id", organizationID,
		"plan_type", planType,
		"billing_cycle", cycle,
		"session_id", session.ID,
	)

	return &dto.CheckoutSessionResponse{
		SessionID:     session.ID,
		CheckoutURL:   session.URL,
		CleanupErrors: cleanup.Errors,
	}, nil
}

func (s *billingService) CancelSubscription(ctx context.Context, organizationID string) (*dto.SubscriptionResponse, error) {
	return s.setCancelAtPeriodEnd(ctx, organizationID, true)
}

func (s *billingService) ReactivateSubscription(ctx context.Context, organizationID string) (*dto.SubscriptionResponse, error) {
	return s.setCancelAtPeriodEnd(ctx, organizationID, false)
}

// setCancelAtPeriodEnd toggles the flag at the provider and mirrors it
// locally. No cleanup pass: the subscription stays in the active set until
// the period actually ends.
func (s *billingService) setCancelAtPeriodEnd(ctx context.Context, organizationID string, cancel bool) (*dto.SubscriptionResponse, error) {
	current, err := s.currentActiveSubscription(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ierr.NewError("no active subscription").
			WithHint("The organization has no subscription to modify").
			WithReportableDetails(map[string]any{"organization_id": organizationID}).
			Mark(ierr.ErrNotFound)
	}

	updated, err := s.Gateway.SetCancelAtPeriodEnd(ctx, current.StripeSubscriptionID, cancel)
	if err != nil {
		return nil, err
	}

	current.CancelAtPeriodEnd = updated.CancelAtPeriodEnd
	current.CancelledAt = unixTime(updated.CanceledAt)
	if err := s.SubscriptionRepo.Update(ctx, current); err != nil {
		return nil, err
	}

	s.Logger.Infow("toggled cancel at period end",
		"organization_id", organizationID,
		"subscription_id", current.ID,
		"cancel_at_period_end", cancel,
	)

	return dto.NewSubscriptionResponse(current), nil
}

func (s *billingService) GetCurrentSubscription(ctx context.Context, organizationID string, force bool) (*dto.CurrentSubscriptionResponse, error) {
	return s.syncService.GetCurrentSubscription(ctx, organizationID, s.Config.Sync.FreshnessWindow, force)
}

func (s *billingService) currentActiveSubscription(ctx context.Context, organizationID string) (*subscription.Subscription, error) {
	subs, err := s.SubscriptionRepo.ListActive(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	return subs[0], nil
}

// ensureStripeCustomer resolves the provider customer on first checkout and
// persists its id on the organization. When a billing email is set, an
// existing provider customer with that email is reused instead of creating a
// duplicate; the stored id can be missing after a re-onboarding.
func (s *billingService) ensureStripeCustomer(ctx context.Context, org *organization.Organization) (string, error) {
	if org.StripeCustomerID != nil && *org.StripeCustomerID != "" {
		return *org.StripeCustomerID, nil
	}

	email := ""
	if org.BillingEmail != nil {
		email = *org.BillingEmail
	}

	var customerID string
	if email != "" {
		found, err := s.Gateway.FindCustomerByEmail(ctx, email)
		switch {
		case err == nil:
			s.Logger.Infow("reusing provider customer found by email",
				"organization_id", org.ID,
				"stripe_customer_id", found,
			)
			customerID = found
		case !ierr.IsNotFound(err):
			return "", err
		}
	}

	if customerID == "" {
		created, err := s.Gateway.CreateCustomer(ctx, stripe.CreateCustomerParams{
			OrganizationID: org.ID,
			Name:           org.Name,
			Email:          email,
		})
		if err != nil {
			return "", err
		}
		customerID = created
	}

	org.StripeCustomerID = &customerID
	if err := s.OrganizationRepo.Update(ctx, org); err != nil {
		return "", err
	}

	s.Logger.Infow("provisioned provider customer",
		"organization_id", org.ID,
		"stripe_customer_id", customerID,
	)
	return customerID, nil
}
