package types

import (
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the status of a subscription.
// The vocabulary mirrors Stripe's subscription statuses
// https://stripe.com/docs/api/subscriptions/object#subscription_object-status
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled         SubscriptionStatus = "cancelled"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusTrialing,
		SubscriptionStatusPastDue,
		SubscriptionStatusCancelled,
		SubscriptionStatusUnpaid,
		SubscriptionStatusIncomplete,
		SubscriptionStatusIncompleteExpired,
		SubscriptionStatusPaused,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsActive reports whether the status counts toward the
// at-most-one-active invariant.
func (s SubscriptionStatus) IsActive() bool {
	return lo.Contains(ActiveSubscriptionStatuses(), s)
}

// ActiveSubscriptionStatuses returns the active set: statuses under which an
// organization is considered subscribed.
func ActiveSubscriptionStatuses() []SubscriptionStatus {
	return []SubscriptionStatus{
		SubscriptionStatusActive,
		SubscriptionStatusTrialing,
		SubscriptionStatusPastDue,
	}
}

// subscriptionStatusFromStripe is the explicit mapping from the provider's
// status vocabulary to ours. Only "canceled" differs in spelling; the rest
// are kept verbatim so webhook payloads stay greppable against the database.
var subscriptionStatusFromStripe = map[string]SubscriptionStatus{
	"active":             SubscriptionStatusActive,
	"trialing":           SubscriptionStatusTrialing,
	"past_due":           SubscriptionStatusPastDue,
	"canceled":           SubscriptionStatusCancelled,
	"unpaid":             SubscriptionStatusUnpaid,
	"incomplete":         SubscriptionStatusIncomplete,
	"incomplete_expired": SubscriptionStatusIncompleteExpired,
	"paused":             SubscriptionStatusPaused,
}

// SubscriptionStatusFromStripe maps a Stripe subscription status to the
// internal enum. The second return value is false for statuses Stripe may
// introduce that we do not know yet; callers decide the fallback.
func SubscriptionStatusFromStripe(status string) (SubscriptionStatus, bool) {
	mapped, ok := subscriptionStatusFromStripe[status]
	return mapped, ok
}

// BillingCycle is the billing interval of a plan price.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

func (c BillingCycle) String() string {
	return string(c)
}

func (c BillingCycle) Validate() error {
	if c != BillingCycleMonthly && c != BillingCycleYearly {
		return ierr.NewError("invalid billing cycle").
			WithHint("Billing cycle must be monthly or yearly").
			WithReportableDetails(map[string]any{"billing_cycle": c}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
