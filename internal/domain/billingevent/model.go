package billingevent

import (
	"encoding/json"
	"time"

	"github.com/docuchat/billing/internal/types"
)

// BillingEvent is one row of the webhook idempotency ledger. A row is
// created once per externally observed event id and afterwards only updated
// in place to record completion or failure.
type BillingEvent struct {
	// ID is the unique identifier of the ledger row
	ID string `db:"id" json:"id"`

	// EventID is the provider's event id, globally unique
	EventID string `db:"event_id" json:"event_id"`

	// EventType is the provider's event type, e.g. customer.subscription.updated
	EventType string `db:"event_type" json:"event_type"`

	// Payload is the raw event body as delivered
	Payload json.RawMessage `db:"payload" json:"payload"`

	// Processed is set once the type-specific handler has succeeded
	Processed bool `db:"processed" json:"processed"`

	// ProcessedAt is when processing succeeded
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at"`

	// ProcessingError holds the last handler failure, if any
	ProcessingError *string `db:"processing_error" json:"processing_error"`

	// RetryCount counts failed processing attempts
	RetryCount int `db:"retry_count" json:"retry_count"`

	types.BaseModel
}
