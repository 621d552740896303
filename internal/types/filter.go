package types

import "time"

// SubscriptionFilter narrows subscription list queries.
type SubscriptionFilter struct {
	OrganizationID     string               `json:"organization_id,omitempty" form:"organization_id"`
	PlanType           PlanType             `json:"plan_type,omitempty" form:"plan_type"`
	SubscriptionStatus []SubscriptionStatus `json:"subscription_status,omitempty" form:"subscription_status"`
	UpdatedAfter       *time.Time           `json:"updated_after,omitempty" form:"updated_after"`
}

// NewActiveSubscriptionFilter matches the active set for one organization.
func NewActiveSubscriptionFilter(organizationID string) *SubscriptionFilter {
	return &SubscriptionFilter{
		OrganizationID:     organizationID,
		SubscriptionStatus: ActiveSubscriptionStatuses(),
	}
}

// BillingEventFilter narrows ledger list queries.
type BillingEventFilter struct {
	EventType string `json:"event_type,omitempty" form:"event_type"`
	Processed *bool  `json:"processed,omitempty" form:"processed"`
	Limit     int    `json:"limit,omitempty" form:"limit"`
}
