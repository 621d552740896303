package testutil

import (
	"context"

	"github.com/docuchat/billing/internal/domain/billingevent"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/types"
)

// InMemoryBillingEventStore implements billingevent.Repository
type InMemoryBillingEventStore struct {
	*InMemoryStore[*billingevent.BillingEvent]
}

func NewInMemoryBillingEventStore() *InMemoryBillingEventStore {
	return &InMemoryBillingEventStore{
		InMemoryStore: NewInMemoryStore[*billingevent.BillingEvent](),
	}
}

func (s *InMemoryBillingEventStore) Create(ctx context.Context, event *billingevent.BillingEvent) error {
	if existing, err := s.GetByEventID(ctx, event.EventID); err == nil && existing != nil {
		return ierr.NewError("billing event already exists").
			WithHint("This event has already been recorded").
			Mark(ierr.ErrAlreadyExists)
	}
	if err := s.InMemoryStore.Create(ctx, event.ID, event); err != nil {
		return ierr.WithError(err).Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryBillingEventStore) GetByEventID(ctx context.Context, eventID string) (*billingevent.BillingEvent, error) {
	events, _ := s.InMemoryStore.List(ctx, nil, func(_ context.Context, event *billingevent.BillingEvent, _ interface{}) bool {
		return event.EventID == eventID
	}, nil)
	if len(events) == 0 {
		return nil, ierr.NewError("billing event not found").
			WithHint("The event has not been seen before").
			Mark(ierr.ErrNotFound)
	}
	return events[0], nil
}

func (s *InMemoryBillingEventStore) Update(ctx context.Context, event *billingevent.BillingEvent) error {
	event.Touch(ctx)
	if err := s.InMemoryStore.Update(ctx, event.ID, event); err != nil {
		return ierr.NewError("billing event not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryBillingEventStore) List(ctx context.Context, filter *types.BillingEventFilter) ([]*billingevent.BillingEvent, error) {
	events, _ := s.InMemoryStore.List(ctx, filter, func(_ context.Context, event *billingevent.BillingEvent, raw interface{}) bool {
		f, ok := raw.(*types.BillingEventFilter)
		if !ok || f == nil {
			return true
		}
		if f.EventType != "" && event.EventType != f.EventType {
			return false
		}
		if f.Processed != nil && event.Processed != *f.Processed {
			return false
		}
		return true
	}, func(i, j *billingevent.BillingEvent) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if filter != nil && filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}
	return events, nil
}
