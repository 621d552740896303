package testutil

import (
	"context"

	"github.com/docuchat/billing/internal/domain/subscription"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/types"
	"github.com/samber/lo"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

// subscriptionFilterFn implements filtering logic for subscriptions
func subscriptionFilterFn(_ context.Context, sub *subscription.Subscription, filter interface{}) bool {
	if sub == nil || sub.Status == types.StatusDeleted {
		return false
	}

	f, ok := filter.(*types.SubscriptionFilter)
	if !ok || f == nil {
		return true
	}

	if f.OrganizationID != "" && sub.OrganizationID != f.OrganizationID {
		return false
	}
	if f.PlanType != "" && sub.PlanType != f.PlanType {
		return false
	}
	if len(f.SubscriptionStatus) > 0 && !lo.Contains(f.SubscriptionStatus, sub.SubscriptionStatus) {
		return false
	}
	if f.UpdatedAfter != nil && !sub.UpdatedAt.After(*f.UpdatedAfter) {
		return false
	}
	return true
}

func subscriptionSortFn(i, j *subscription.Subscription) bool {
	return i.UpdatedAt.After(j.UpdatedAt)
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if existing, err := s.GetByStripeSubscriptionID(ctx, sub.StripeSubscriptionID); err == nil && existing != nil {
		return ierr.NewError("subscription already exists").
			WithHint("A subscription with this provider id already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	if err := s.InMemoryStore.Create(ctx, sub.ID, sub); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("subscription not found").
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func (s *InMemorySubscriptionStore) GetByStripeSubscriptionID(ctx context.Context, stripeSubscriptionID string) (*subscription.Subscription, error) {
	subs, _ := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return sub.StripeSubscriptionID == stripeSubscriptionID && sub.Status != types.StatusDeleted
	}, nil)
	if len(subs) == 0 {
		return nil, ierr.NewError("subscription not found").
			WithHint("No subscription is linked to this provider id").
			Mark(ierr.ErrNotFound)
	}
	return subs[0], nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	sub.Touch(ctx)
	if err := s.InMemoryStore.Update(ctx, sub.ID, sub); err != nil {
		return ierr.NewError("subscription not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemorySubscriptionStore) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, filter, subscriptionFilterFn, subscriptionSortFn)
}

func (s *InMemorySubscriptionStore) ListActive(ctx context.Context, organizationID string) ([]*subscription.Subscription, error) {
	return s.List(ctx, types.NewActiveSubscriptionFilter(organizationID))
}
