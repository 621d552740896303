package stripe

import (
	"context"

	"github.com/docuchat/billing/internal/config"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/types"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// CreateCustomerParams carries what we send when creating a provider
// customer for an organization.
type CreateCustomerParams struct {
	OrganizationID string
	Name           string
	Email          string
}

// CheckoutParams carries what we send when creating a subscription checkout
// session. Metadata on the session and the subscription is how webhook
// handlers later attribute provider objects back to the organization.
type CheckoutParams struct {
	CustomerID     string
	PriceID        string
	OrganizationID string
	PlanType       types.PlanType
	SuccessURL     string
	CancelURL      string
}

// Gateway is the provider surface the billing services depend on. The real
// implementation talks to Stripe; tests swap in a fake.
type Gateway interface {
	Configured() bool
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (string, error)
	FindCustomerByEmail(ctx context.Context, email string) (string, error)
	ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error)
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*stripe.Subscription, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*stripe.CheckoutSession, error)
	VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error)
}

type gateway struct {
	client *Client
	cfg    config.StripeConfig
	logger *logger.Logger
}

// NewGateway creates the Stripe-backed Gateway.
func NewGateway(cfg *config.Configuration, client *Client, logger *logger.Logger) Gateway {
	return &gateway{
		client: client,
		cfg:    cfg.Stripe,
		logger: logger,
	}
}

func (g *gateway) Configured() bool {
	return g.client.Configured()
}

func (g *gateway) CreateCustomer(ctx context.Context, params CreateCustomerParams) (string, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return "", err
	}

	createParams := &stripe.CustomerCreateParams{
		Name: stripe.String(params.Name),
		Metadata: types.Metadata{
			types.MetadataKeyOrganizationID: params.OrganizationID,
			types.MetadataKeySource:         "docuchat",
		},
	}
	if params.Email != "" {
		createParams.Email = stripe.String(params.Email)
	}

	customer, err := stripeClient.V1Customers.Create(ctx, createParams)
	if err != nil {
		g.logger.Errorw("failed to create customer in Stripe",
			"error", err,
			"organization_id", params.OrganizationID,
		)
		return "", ierr.NewError("failed to create customer in Stripe").
			WithHint("Stripe API error").
			WithReportableDetails(map[string]any{
				"organization_id": params.OrganizationID,
				"error":           err.Error(),
			}).
			Mark(ierr.ErrProviderAPI)
	}

	return customer.ID, nil
}

func (g *gateway) FindCustomerByEmail(ctx context.Context, email string) (string, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return "", err
	}

	params := &stripe.CustomerSearchParams{}
	params.Query = "email:'" + email + "'"
	params.Limit = stripe.Int64(1)

	iter := stripeClient.V1Customers.Search(ctx, params)
	for customer, err := range iter {
		if err != nil {
			return "", ierr.WithError(err).
				WithHint("Stripe customer search failed").
				Mark(ierr.ErrProviderAPI)
		}
		return customer.ID, nil
	}

	return "", ierr.NewError("customer not found").
		WithHint("No Stripe customer exists with this email").
		Mark(ierr.ErrNotFound)
}

func (g *gateway) ListSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.AddExpand("data.items.data.price")

	var subs []*stripe.Subscription
	iter := stripeClient.V1Subscriptions.List(ctx, params)
	for sub, err := range iter {
		if err != nil {
			g.logger.Errorw("failed to list subscriptions from Stripe",
				"error", err,
				"stripe_customer_id", customerID,
			)
			return nil, ierr.NewError("failed to list subscriptions from Stripe").
				WithHint("Could not fetch subscriptions from Stripe").
				WithReportableDetails(map[string]any{
					"stripe_customer_id": customerID,
					"error":              err.Error(),
				}).
				Mark(ierr.ErrProviderAPI)
		}
		subs = append(subs, sub)
	}

	return subs, nil
}

func (g *gateway) RetrieveSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionRetrieveParams{
		Expand: []*string{
			stripe.String("customer"),
			stripe.String("items.data.price"),
		},
	}

	sub, err := stripeClient.V1Subscriptions.Retrieve(ctx, subscriptionID, params)
	if err != nil {
		g.logger.Errorw("failed to retrieve subscription from Stripe",
			"error", err,
			"stripe_subscription_id", subscriptionID,
		)
		return nil, ierr.NewError("failed to retrieve subscription from Stripe").
			WithHint("Could not fetch subscription information from Stripe").
			WithReportableDetails(map[string]any{
				"stripe_subscription_id": subscriptionID,
				"error":                  err.Error(),
			}).
			Mark(ierr.ErrProviderAPI)
	}

	return sub, nil
}

func (g *gateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return err
	}

	_, err = stripeClient.V1Subscriptions.Cancel(ctx, subscriptionID, &stripe.SubscriptionCancelParams{})
	if err != nil {
		g.logger.Errorw("failed to cancel subscription in Stripe",
			"error", err,
			"stripe_subscription_id", subscriptionID,
		)
		return ierr.NewError("failed to cancel subscription in Stripe").
			WithHint("Stripe API error").
			WithReportableDetails(map[string]any{
				"stripe_subscription_id": subscriptionID,
				"error":                  err.Error(),
			}).
			Mark(ierr.ErrProviderAPI)
	}

	return nil
}

func (g *gateway) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*stripe.Subscription, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionUpdateParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}

	sub, err := stripeClient.V1Subscriptions.Update(ctx, subscriptionID, params)
	if err != nil {
		g.logger.Errorw("failed to update subscription in Stripe",
			"error", err,
			"stripe_subscription_id", subscriptionID,
			"cancel_at_period_end", cancel,
		)
		return nil, ierr.NewError("failed to update subscription in Stripe").
			WithHint("Stripe API error").
			WithReportableDetails(map[string]any{
				"stripe_subscription_id": subscriptionID,
				"error":                  err.Error(),
			}).
			Mark(ierr.ErrProviderAPI)
	}

	return sub, nil
}

func (g *gateway) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*stripe.CheckoutSession, error) {
	stripeClient, err := g.client.GetStripeClient()
	if err != nil {
		return nil, err
	}

	successURL := params.SuccessURL
	if successURL == "" {
		successURL = g.cfg.SuccessURL
	}
	cancelURL := params.CancelURL
	if cancelURL == "" {
		cancelURL = g.cfg.CancelURL
	}

	metadata := types.Metadata{
		types.MetadataKeyOrganizationID: params.OrganizationID,
		types.MetadataKeyPlanType:       string(params.PlanType),
	}

	sessionParams := &stripe.CheckoutSessionCreateParams{
		Customer: stripe.String(params.CustomerID),
		Mode:     stripe.String("subscription"),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:          stripe.String(successURL),
		CancelURL:           stripe.String(cancelURL),
		AllowPromotionCodes: stripe.Bool(true),
		Metadata:            metadata,
		SubscriptionData: &stripe.CheckoutSessionCreateSubscriptionDataParams{
			Metadata: metadata,
		},
	}

	session, err := stripeClient.V1CheckoutSessions.Create(ctx, sessionParams)
	if err != nil {
		g.logger.Errorw("failed to create Stripe checkout session",
			"error", err,
			"organization_id", params.OrganizationID,
			"price_id", params.PriceID,
		)
		return nil, ierr.NewError("failed to create checkout session").
			WithHint("Unable to create Stripe checkout session").
			WithReportableDetails(map[string]any{
				"organization_id": params.OrganizationID,
				"error":           err.Error(),
			}).
			Mark(ierr.ErrProviderAPI)
	}

	return session, nil
}

// VerifyWebhookSignature verifies a webhook payload against the endpoint
// secret, ignoring API version mismatch.
func (g *gateway) VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error) {
	options := webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret, options)
	if err != nil {
		g.logger.Errorw("stripe webhook verification failed", "error", err)
		return nil, ierr.NewError("failed to verify webhook signature").
			WithHint("Invalid webhook signature or payload").
			Mark(ierr.ErrSignatureInvalid)
	}
	return &event, nil
}
