package subscription

import (
	"context"

	"github.com/docuchat/billing/internal/types"
)

type Repository interface {
	Create(ctx context.Context, subscription *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	// GetByStripeSubscriptionID is the natural-key lookup the upsert path is
	// built on; returns ErrNotFound when no row exists.
	GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error
	List(ctx context.Context, filter *types.SubscriptionFilter) ([]*Subscription, error)
	// ListActive returns the organization's rows in the active set,
	// most recently updated first.
	ListActive(ctx context.Context, organizationID string) ([]*Subscription, error)
}
