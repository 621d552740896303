package stripe

import (
	"github.com/docuchat/billing/internal/config"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/logger"
	"github.com/stripe/stripe-go/v82"
)

// Client handles Stripe API client setup and configuration
type Client struct {
	cfg    config.StripeConfig
	logger *logger.Logger
}

// NewClient creates a new Stripe client wrapper
func NewClient(cfg *config.Configuration, logger *logger.Logger) *Client {
	return &Client{
		cfg:    cfg.Stripe,
		logger: logger,
	}
}

// Configured reports whether provider credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.Configured()
}

// GetStripeClient returns a configured Stripe API client, or
// ErrProviderNotConfigured when no secret key is set.
func (c *Client) GetStripeClient() (*stripe.Client, error) {
	if !c.cfg.Configured() {
		return nil, ierr.NewError("payment provider not configured").
			WithHint("Stripe credentials are not set for this deployment").
			Mark(ierr.ErrProviderNotConfigured)
	}
	return stripe.NewClient(c.cfg.SecretKey, nil), nil
}

// WebhookSecret returns the endpoint secret used to verify webhook signatures.
func (c *Client) WebhookSecret() string {
	return c.cfg.WebhookSecret
}

// SuccessURL returns the checkout success redirect.
func (c *Client) SuccessURL() string {
	return c.cfg.SuccessURL
}

// CancelURL returns the checkout cancel redirect.
func (c *Client) CancelURL() string {
	return c.cfg.CancelURL
}
