package subscription

import (
	"time"

	"github.com/docuchat/billing/internal/types"
	"github.com/shopspring/decimal"
)

// Subscription is the canonical local copy of a provider subscription.
// Rows are created on first sync from a provider object, mutated only by the
// synchronizer, and never hard-deleted; the terminal status is cancelled.
type Subscription struct {
	// ID is the unique identifier for the subscription in our system
	ID string `db:"id" json:"id"`

	// OrganizationID is the owning tenant
	OrganizationID string `db:"organization_id" json:"organization_id"`

	// StripeSubscriptionID is the provider-side identifier. Globally unique:
	// one provider subscription maps to exactly one local row.
	StripeSubscriptionID string `db:"stripe_subscription_id" json:"stripe_subscription_id"`

	// PlanType is the pricing tier this subscription grants
	PlanType types.PlanType `db:"plan_type" json:"plan_type"`

	// SubscriptionStatus is the mapped provider status
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// CurrentPeriodStart is the start of the period the subscription has
	// been invoiced for
	CurrentPeriodStart *time.Time `db:"current_period_start" json:"current_period_start"`

	// CurrentPeriodEnd is the end of the invoiced period
	CurrentPeriodEnd *time.Time `db:"current_period_end" json:"current_period_end"`

	// TrialStart is the start date of the trial period
	TrialStart *time.Time `db:"trial_start" json:"trial_start"`

	// TrialEnd is the end date of the trial period
	TrialEnd *time.Time `db:"trial_end" json:"trial_end"`

	// CancelAtPeriodEnd is whether the subscription is set to cancel at the
	// end of the current period
	CancelAtPeriodEnd bool `db:"cancel_at_period_end" json:"cancel_at_period_end"`

	// CancelledAt is when the subscription was cancelled
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at"`

	// Amount is the recurring charge of the subscription
	Amount decimal.Decimal `db:"amount" json:"amount"`

	// Currency is the lowercase 3 letter ISO currency code
	Currency string `db:"currency" json:"currency"`

	// Features is a snapshot of the plan's feature list at sync time
	Features Features `db:"features" json:"features"`

	// Limits is a snapshot of the plan's quota table at sync time,
	// -1 meaning unlimited
	Limits Limits `db:"limits" json:"limits"`

	types.BaseModel
}

// IsActive reports whether the row counts toward the at-most-one-active
// invariant.
func (s *Subscription) IsActive() bool {
	return s.SubscriptionStatus.IsActive()
}
