package billingevent

import (
	"context"

	"github.com/docuchat/billing/internal/types"
)

type Repository interface {
	Create(ctx context.Context, event *BillingEvent) error
	// GetByEventID is the dedup lookup; returns ErrNotFound when the event
	// has not been seen.
	GetByEventID(ctx context.Context, eventID string) (*BillingEvent, error)
	Update(ctx context.Context, event *BillingEvent) error
	List(ctx context.Context, filter *types.BillingEventFilter) ([]*BillingEvent, error)
}
