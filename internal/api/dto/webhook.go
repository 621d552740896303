package dto

// WebhookResponse acknowledges receipt of a provider webhook. Returning 200
// is what stops the provider from redelivering the event.
type WebhookResponse struct {
	Received bool `json:"received"`
}

// SyncResponse reports the outcome of an on-demand reconciliation.
type SyncResponse struct {
	Synced       bool                  `json:"synced"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
}
