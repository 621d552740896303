package dto

import (
	"time"

	"github.com/docuchat/billing/internal/domain/subscription"
	"github.com/docuchat/billing/internal/types"
	"github.com/shopspring/decimal"
)

// SubscriptionResponse is the API shape of the organization's current
// subscription state.
type SubscriptionResponse struct {
	ID                   string                   `json:"id"`
	OrganizationID       string                   `json:"organization_id"`
	StripeSubscriptionID string                   `json:"stripe_subscription_id"`
	PlanType             types.PlanType           `json:"plan_type"`
	SubscriptionStatus   types.SubscriptionStatus `json:"subscription_status"`
	CurrentPeriodStart   *time.Time               `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time               `json:"current_period_end,omitempty"`
	TrialStart           *time.Time               `json:"trial_start,omitempty"`
	TrialEnd             *time.Time               `json:"trial_end,omitempty"`
	CancelAtPeriodEnd    bool                     `json:"cancel_at_period_end"`
	CancelledAt          *time.Time               `json:"cancelled_at,omitempty"`
	Amount               decimal.Decimal          `json:"amount"`
	Currency             string                   `json:"currency"`
	Features             []string                 `json:"features"`
	Limits               map[string]int64         `json:"limits"`
	UpdatedAt            time.Time                `json:"updated_at"`
}

// CurrentSubscriptionResponse wraps the current subscription; Subscription
// is null when the organization is on the free tier. Synced reports whether
// this read pulled fresh state from the provider.
type CurrentSubscriptionResponse struct {
	Subscription *SubscriptionResponse `json:"subscription"`
	PlanType     types.PlanType        `json:"plan_type"`
	Synced       bool                  `json:"synced"`
}

// CleanupResult reports a best-effort batch cancellation. Per-item failures
// are collected here instead of aborting the batch.
type CleanupResult struct {
	CleanedCount int      `json:"cleaned_count"`
	Errors       []string `json:"errors,omitempty"`
}

func (r *CleanupResult) HasErrors() bool {
	return len(r.Errors) > 0
}

func NewSubscriptionResponse(sub *subscription.Subscription) *SubscriptionResponse {
	if sub == nil {
		return nil
	}
	return &SubscriptionResponse{
		ID:                   sub.ID,
		OrganizationID:       sub.OrganizationID,
		StripeSubscriptionID: sub.StripeSubscriptionID,
		PlanType:             sub.PlanType,
		SubscriptionStatus:   sub.SubscriptionStatus,
		CurrentPeriodStart:   sub.CurrentPeriodStart,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
		TrialStart:           sub.TrialStart,
		TrialEnd:             sub.TrialEnd,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		CancelledAt:          sub.CancelledAt,
		Amount:               sub.Amount,
		Currency:             sub.Currency,
		Features:             sub.Features,
		Limits:               sub.Limits,
		UpdatedAt:            sub.UpdatedAt,
	}
}
