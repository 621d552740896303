package service

import (
	"context"
	"time"

	"github.com/docuchat/billing/internal/api/dto"
	"github.com/docuchat/billing/internal/domain/subscription"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	stripesdk "github.com/stripe/stripe-go/v82"
)

// SubscriptionSyncService keeps the local subscription table consistent with
// the provider. It is the only writer of subscription rows: webhook handlers,
// the read path and the background scheduler all funnel through it.
type SubscriptionSyncService interface {
	// SyncSubscriptionToDatabase upserts the local row for one provider
	// subscription, keyed by its provider id.
	SyncSubscriptionToDatabase(ctx context.Context, stripeSub *stripesdk.Subscription, organizationID string) (*subscription.Subscription, error)

	// CleanupExistingSubscriptions cancels every active-set subscription for
	// the organization except keepSubscriptionID, at the provider and
	// locally. Per-item failures are collected, never aborting the batch.
	CleanupExistingSubscriptions(ctx context.Context, organizationID, stripeCustomerID, keepSubscriptionID string) (*dto.CleanupResult, error)

	// GetCurrentSubscription reads the organization's subscription, pulling
	// from the provider when the local row is older than freshness or when
	// force is set.
	GetCurrentSubscription(ctx context.Context, organizationID string, freshness time.Duration, force bool) (*dto.CurrentSubscriptionResponse, error)

	// SyncOrganization is a forced reconciliation pass, used by the
	// background scheduler after mutations.
	SyncOrganization(ctx context.Context, organizationID string) error
}

type subscriptionSyncService struct {
	ServiceParams
	planCatalog PlanCatalogService
}

func NewSubscriptionSyncService(params ServiceParams, planCatalog PlanCatalogService) SubscriptionSyncService {
	return &subscriptionSyncService{
		ServiceParams: params,
		planCatalog:   planCatalog,
	}
}

func (s *subscriptionSyncService) SyncSubscriptionToDatabase(ctx context.Context, stripeSub *stripesdk.Subscription, organizationID string) (*subscription.Subscription, error) {
	if stripeSub == nil {
		return nil, ierr.NewError("provider subscription is nil").
			Mark(ierr.ErrValidation)
	}

	planType := s.resolvePlanType(ctx, stripeSub)
	status := s.mapStatus(stripeSub)

	existing, err := s.SubscriptionRepo.GetByStripeSubscriptionID(ctx, stripeSub.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}

	var sub *subscription.Subscription
	if existing == nil {
		sub = &subscription.Subscription{
			ID:                   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
			OrganizationID:       organizationID,
			StripeSubscriptionID: stripeSub.ID,
			BaseModel:            types.GetDefaultBaseModel(ctx),
		}
	} else {
		sub = existing
	}

	sub.PlanType = planType
	sub.SubscriptionStatus = status
	s.applyProviderFields(sub, stripeSub)
	s.applyPlanSnapshot(ctx, sub, planType)

	if existing == nil {
		if err := s.SubscriptionRepo.Create(ctx, sub); err != nil {
			// Lost a race with a concurrent sync of the same provider
			// subscription; re-read and update instead.
			if !ierr.IsAlreadyExists(err) {
				return nil, err
			}
			current, getErr := s.SubscriptionRepo.GetByStripeSubscriptionID(ctx, stripeSub.ID)
			if getErr != nil {
				return nil, getErr
			}
			sub.ID = current.ID
			sub.BaseModel = current.BaseModel
			if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
				return nil, err
			}
		}
	} else {
		if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
			return nil, err
		}
	}

	s.Logger.Infow("synced subscription from provider",
		"organization_id", organizationID,
		"stripe_subscription_id", stripeSub.ID,
		"plan_type", planType,
		"subscription_status", status,
		"created", existing == nil,
	)

	s.repairOrganizationPlan(ctx, organizationID, sub)

	return sub, nil
}

// resolvePlanType resolves the tier of a provider subscription: metadata
// first, then reverse lookup of the price id, then the default tier.
func (s *subscriptionSyncService) resolvePlanType(ctx context.Context, stripeSub *stripesdk.Subscription) types.PlanType {
	if raw, ok := stripeSub.Metadata[types.MetadataKeyPlanType]; ok {
		planType := types.PlanType(raw)
		if err := planType.Validate(); err == nil {
			return planType
		}
		s.Logger.Warnw("invalid plan type in subscription metadata",
			"stripe_subscription_id", stripeSub.ID,
			"plan_type", raw,
		)
	}

	if priceID := subscriptionPriceID(stripeSub); priceID != "" {
		if planType, ok := s.planCatalog.ResolvePlanTypeByPriceID(ctx, priceID); ok {
			return planType
		}
		s.Logger.Warnw("price id not found in plan catalog",
			"stripe_subscription_id", stripeSub.ID,
			"price_id", priceID,
		)
	}

	s.Logger.Warnw("could not resolve plan type, using default",
		"stripe_subscription_id", stripeSub.ID,
		"default_plan_type", types.DefaultPlanType,
	)
	return types.DefaultPlanType
}

// mapStatus maps the provider status vocabulary onto the internal enum.
// Unknown values degrade to active so a new provider status never locks a
// paying customer out.
func (s *subscriptionSyncService) mapStatus(stripeSub *stripesdk.Subscription) types.SubscriptionStatus {
	status, ok := types.SubscriptionStatusFromStripe(string(stripeSub.Status))
	if !ok {
		s.Logger.Warnw("unmapped provider subscription status, defaulting to active",
			"stripe_subscription_id", stripeSub.ID,
			"provider_status", stripeSub.Status,
		)
		return types.SubscriptionStatusActive
	}
	return status
}

func (s *subscriptionSyncService) applyProviderFields(sub *subscription.Subscription, stripeSub *stripesdk.Subscription) {
	sub.CancelAtPeriodEnd = stripeSub.CancelAtPeriodEnd
	sub.CancelledAt = unixTime(stripeSub.CanceledAt)
	sub.TrialStart = unixTime(stripeSub.TrialStart)
	sub.TrialEnd = unixTime(stripeSub.TrialEnd)
	sub.Currency = string(stripeSub.Currency)

	if item := firstItem(stripeSub); item != nil {
		sub.CurrentPeriodStart = unixTime(item.CurrentPeriodStart)
		sub.CurrentPeriodEnd = unixTime(item.CurrentPeriodEnd)
		if item.Price != nil {
			sub.Amount = decimal.NewFromInt(item.Price.UnitAmount).Div(decimal.NewFromInt(100))
			if item.Price.Currency != "" {
				sub.Currency = string(item.Price.Currency)
			}
		}
	}
}

// applyPlanSnapshot copies the plan's feature list and quota table onto the
// subscription row so entitlement checks never need the catalog at runtime.
func (s *subscriptionSyncService) applyPlanSnapshot(ctx context.Context, sub *subscription.Subscription, planType types.PlanType) {
	plan, err := s.planCatalog.GetPlan(ctx, planType)
	if err != nil {
		s.Logger.Warnw("failed to snapshot plan features onto subscription",
			"plan_type", planType,
			"error", err,
		)
		return
	}
	sub.Features = plan.Features
	sub.Limits = plan.Limits
}

// repairOrganizationPlan is a best-effort mirror update; divergence here is
// self-healed on the next sync, so failures only warn.
func (s *subscriptionSyncService) repairOrganizationPlan(ctx context.Context, organizationID string, sub *subscription.Subscription) {
	org, err := s.OrganizationRepo.Get(ctx, organizationID)
	if err != nil {
		s.Logger.Warnw("failed to load organization for plan repair",
			"organization_id", organizationID,
			"error", err,
		)
		return
	}

	var wantPlan *types.PlanType
	var wantStatus *types.SubscriptionStatus
	if sub.IsActive() {
		wantPlan = lo.ToPtr(sub.PlanType)
		wantStatus = lo.ToPtr(sub.SubscriptionStatus)
	}

	if equalPlanPtr(org.PlanType, wantPlan) && equalStatusPtr(org.SubscriptionStatus, wantStatus) {
		return
	}

	org.PlanType = wantPlan
	org.SubscriptionStatus = wantStatus
	if err := s.OrganizationRepo.Update(ctx, org); err != nil {
		s.Logger.Warnw("failed to repair organization plan",
			"organization_id", organizationID,
			"error", err,
		)
		return
	}

	s.Logger.Infow("repaired organization plan mirror",
		"organization_id", organizationID,
		"plan_type", wantPlan,
		"subscription_status", wantStatus,
	)
}

func (s *subscriptionSyncService) CleanupExistingSubscriptions(ctx context.Context, organizationID, stripeCustomerID, keepSubscriptionID string) (*dto.CleanupResult, error) {
	result := &dto.CleanupResult{}

	var providerSubs []*stripesdk.Subscription
	if stripeCustomerID != "" && s.Gateway.Configured() {
		subs, err := s.Gateway.ListSubscriptions(ctx, stripeCustomerID)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
		} else {
			providerSubs = subs
		}
	}

	s.cleanupSubscriptions(ctx, organizationID, providerSubs, keepSubscriptionID, result)
	return result, nil
}

// cleanupSubscriptions cancels every provider and local active-set
// subscription except keepSubscriptionID, collecting per-item failures into
// result. Callers that already hold the provider list pass it in, so the
// batch costs no extra list call.
func (s *subscriptionSyncService) cleanupSubscriptions(ctx context.Context, organizationID string, providerSubs []*stripesdk.Subscription, keepSubscriptionID string, result *dto.CleanupResult) {
	for _, providerSub := range providerSubs {
		if providerSub.ID == keepSubscriptionID {
			continue
		}
		status, ok := types.SubscriptionStatusFromStripe(string(providerSub.Status))
		if ok && !status.IsActive() {
			continue
		}
		if err := s.Gateway.CancelSubscription(ctx, providerSub.ID); err != nil {
			s.Logger.Errorw("failed to cancel provider subscription during cleanup",
				"organization_id", organizationID,
				"stripe_subscription_id", providerSub.ID,
				"error", err,
			)
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.CleanedCount++
	}

	localSubs, err := s.SubscriptionRepo.ListActive(ctx, organizationID)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}

	now := time.Now().UTC()
	for _, localSub := range localSubs {
		if localSub.StripeSubscriptionID == keepSubscriptionID {
			continue
		}
		localSub.SubscriptionStatus = types.SubscriptionStatusCancelled
		localSub.CancelAtPeriodEnd = true
		localSub.CancelledAt = &now
		if err := s.SubscriptionRepo.Update(ctx, localSub); err != nil {
			s.Logger.Errorw("failed to cancel local subscription during cleanup",
				"organization_id", organizationID,
				"subscription_id", localSub.ID,
				"error", err,
			)
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.CleanedCount++
	}

	if result.CleanedCount > 0 || result.HasErrors() {
		s.Logger.Infow("subscription cleanup finished",
			"organization_id", organizationID,
			"kept_subscription_id", keepSubscriptionID,
			"cleaned_count", result.CleanedCount,
			"error_count", len(result.Errors),
		)
	}
}

func (s *subscriptionSyncService) GetCurrentSubscription(ctx context.Context, organizationID string, freshness time.Duration, force bool) (*dto.CurrentSubscriptionResponse, error) {
	org, err := s.OrganizationRepo.Get(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	localSubs, err := s.SubscriptionRepo.ListActive(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	var current *subscription.Subscription
	if len(localSubs) > 0 {
		current = localSubs[0]
	}

	if !force && current != nil && time.Since(current.UpdatedAt) < freshness {
		return s.currentResponse(org.PlanType, current, false), nil
	}

	// Nothing to pull when the provider is not configured or the
	// organization has never checked out.
	if !s.Gateway.Configured() || org.StripeCustomerID == nil || *org.StripeCustomerID == "" {
		return s.currentResponse(org.PlanType, current, false), nil
	}

	providerSubs, err := s.Gateway.ListSubscriptions(ctx, *org.StripeCustomerID)
	if err != nil {
		return nil, err
	}

	canonical := selectCanonical(providerSubs)
	if canonical == nil {
		// The provider has no live subscription for this customer; the
		// local active set and the organization mirror are stale.
		if err := s.clearLocalState(ctx, organizationID, localSubs); err != nil {
			return nil, err
		}
		return s.currentResponse(nil, nil, true), nil
	}

	synced, err := s.SyncSubscriptionToDatabase(ctx, canonical, organizationID)
	if err != nil {
		return nil, err
	}

	// Reuse the list fetched for canonical selection: the stale read path
	// makes exactly one provider list call.
	cleanup := &dto.CleanupResult{}
	s.cleanupSubscriptions(ctx, organizationID, providerSubs, canonical.ID, cleanup)
	if cleanup.HasErrors() {
		s.Logger.Warnw("partial cleanup during subscription read",
			"organization_id", organizationID,
			"errors", cleanup.Errors,
		)
	}

	planType := lo.ToPtr(synced.PlanType)
	if !synced.IsActive() {
		planType = nil
		synced = nil
	}
	return s.currentResponse(planType, synced, true), nil
}

func (s *subscriptionSyncService) SyncOrganization(ctx context.Context, organizationID string) error {
	_, err := s.GetCurrentSubscription(ctx, organizationID, 0, true)
	return err
}

// clearLocalState cancels the local active set and clears the organization
// mirror after the provider reported no live subscription. Runs in one
// transaction: a half-cleared state would report a plan with no subscription
// backing it.
func (s *subscriptionSyncService) clearLocalState(ctx context.Context, organizationID string, localSubs []*subscription.Subscription) error {
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		for _, localSub := range localSubs {
			localSub.SubscriptionStatus = types.SubscriptionStatusCancelled
			localSub.CancelAtPeriodEnd = true
			localSub.CancelledAt = &now
			if err := s.SubscriptionRepo.Update(ctx, localSub); err != nil {
				return err
			}
		}

		org, err := s.OrganizationRepo.Get(ctx, organizationID)
		if err != nil {
			return err
		}
		if org.PlanType != nil || org.SubscriptionStatus != nil {
			org.PlanType = nil
			org.SubscriptionStatus = nil
			if err := s.OrganizationRepo.Update(ctx, org); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.Infow("cleared local subscription state, provider reports none",
		"organization_id", organizationID,
		"cancelled_count", len(localSubs),
	)
	return nil
}

func (s *subscriptionSyncService) currentResponse(planType *types.PlanType, sub *subscription.Subscription, synced bool) *dto.CurrentSubscriptionResponse {
	resp := &dto.CurrentSubscriptionResponse{
		Subscription: dto.NewSubscriptionResponse(sub),
		PlanType:     types.PlanTypeFree,
		Synced:       synced,
	}
	if planType != nil {
		resp.PlanType = *planType
	}
	return resp
}

// selectCanonical picks the authoritative provider subscription when several
// exist: active wins, then trialing, then the most recently created past_due.
func selectCanonical(subs []*stripesdk.Subscription) *stripesdk.Subscription {
	var trialing, pastDue *stripesdk.Subscription
	for _, sub := range subs {
		switch sub.Status {
		case stripesdk.SubscriptionStatusActive:
			return sub
		case stripesdk.SubscriptionStatusTrialing:
			if trialing == nil {
				trialing = sub
			}
		case stripesdk.SubscriptionStatusPastDue:
			if pastDue == nil || sub.Created > pastDue.Created {
				pastDue = sub
			}
		}
	}
	if trialing != nil {
		return trialing
	}
	return pastDue
}

func firstItem(sub *stripesdk.Subscription) *stripesdk.SubscriptionItem {
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil
	}
	return sub.Items.Data[0]
}

func subscriptionPriceID(sub *stripesdk.Subscription) string {
	item := firstItem(sub)
	if item == nil || item.Price == nil {
		return ""
	}
	return item.Price.ID
}

func unixTime(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

func equalPlanPtr(a, b *types.PlanType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalStatusPtr(a, b *types.SubscriptionStatus) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
