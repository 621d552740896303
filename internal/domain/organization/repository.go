package organization

import "context"

type Repository interface {
	Create(ctx context.Context, org *Organization) error
	Get(ctx context.Context, id string) (*Organization, error)
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*Organization, error)
	Update(ctx context.Context, org *Organization) error
}
