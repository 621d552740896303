package organization

import (
	"github.com/docuchat/billing/internal/types"
)

// Organization is the tenant of the platform. PlanType and
// SubscriptionStatus are denormalized mirrors of the organization's current
// active subscription; the synchronizer repairs them when they diverge.
type Organization struct {
	// ID is the unique identifier for the organization
	ID string `db:"id" json:"id"`

	// Name is the display name of the organization
	Name string `db:"name" json:"name"`

	// PlanType mirrors the plan of the current active subscription,
	// nil when the organization has none
	PlanType *types.PlanType `db:"plan_type" json:"plan_type"`

	// SubscriptionStatus mirrors the status of the current active subscription
	SubscriptionStatus *types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// BillingEmail is the address billing goes to, also used to find an
	// existing provider customer when no id is stored
	BillingEmail *string `db:"billing_email" json:"billing_email"`

	// StripeCustomerID is the identifier of the organization's customer
	// object at the payment provider, set lazily on first checkout
	StripeCustomerID *string `db:"stripe_customer_id" json:"stripe_customer_id"`

	types.BaseModel
}
