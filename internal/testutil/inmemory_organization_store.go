package testutil

import (
	"context"

	"github.com/docuchat/billing/internal/domain/organization"
	ierr "github.com/docuchat/billing/internal/errors"
)

// InMemoryOrganizationStore implements organization.Repository
type InMemoryOrganizationStore struct {
	*InMemoryStore[*organization.Organization]
}

func NewInMemoryOrganizationStore() *InMemoryOrganizationStore {
	return &InMemoryOrganizationStore{
		InMemoryStore: NewInMemoryStore[*organization.Organization](),
	}
}

func (s *InMemoryOrganizationStore) Create(ctx context.Context, org *organization.Organization) error {
	if err := s.InMemoryStore.Create(ctx, org.ID, org); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryOrganizationStore) Get(ctx context.Context, id string) (*organization.Organization, error) {
	org, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("organization not found").
			WithHint("The organization does not exist").
			Mark(ierr.ErrNotFound)
	}
	return org, nil
}

func (s *InMemoryOrganizationStore) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*organization.Organization, error) {
	orgs, _ := s.InMemoryStore.List(ctx, nil, func(_ context.Context, org *organization.Organization, _ interface{}) bool {
		return org.StripeCustomerID != nil && *org.StripeCustomerID == stripeCustomerID
	}, nil)
	if len(orgs) == 0 {
		return nil, ierr.NewError("organization not found").
			WithHint("No organization is linked to this customer").
			Mark(ierr.ErrNotFound)
	}
	return orgs[0], nil
}

func (s *InMemoryOrganizationStore) Update(ctx context.Context, org *organization.Organization) error {
	if err := s.InMemoryStore.Update(ctx, org.ID, org); err != nil {
		return ierr.NewError("organization not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}
