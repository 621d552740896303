package types

// WebhookEventType enumerates the Stripe event types the billing engine
// reacts to. Everything else is recorded in the ledger and skipped.
type WebhookEventType string

const (
	WebhookEventTypeSubscriptionCreated     WebhookEventType = "customer.subscription.created"
	WebhookEventTypeSubscriptionUpdated     WebhookEventType = "customer.subscription.updated"
	WebhookEventTypeSubscriptionDeleted     WebhookEventType = "customer.subscription.deleted"
	WebhookEventTypeCheckoutSessionComplete WebhookEventType = "checkout.session.completed"
	WebhookEventTypeInvoicePaymentFailed    WebhookEventType = "invoice.payment_failed"
)

func (t WebhookEventType) String() string {
	return string(t)
}
