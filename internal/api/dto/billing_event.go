package dto

import (
	"encoding/json"

	"github.com/docuchat/billing/internal/domain/billingevent"
	"github.com/docuchat/billing/internal/validator"
)

// BillingEventRequest is one inbound provider event after signature
// verification: the provider's id, type and raw body.
type BillingEventRequest struct {
	EventID   string          `json:"event_id" validate:"required"`
	EventType string          `json:"event_type" validate:"required"`
	Payload   json.RawMessage `json:"payload"`
}

func (r *BillingEventRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// BillingEventResponse reports the ledger outcome for one delivery.
type BillingEventResponse struct {
	EventID          string `json:"event_id"`
	EventType        string `json:"event_type"`
	Processed        bool   `json:"processed"`
	AlreadyProcessed bool   `json:"already_processed"`
}

func NewBillingEventResponse(event *billingevent.BillingEvent, alreadyProcessed bool) *BillingEventResponse {
	return &BillingEventResponse{
		EventID:          event.EventID,
		EventType:        event.EventType,
		Processed:        event.Processed,
		AlreadyProcessed: alreadyProcessed,
	}
}
