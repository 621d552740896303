package service

import (
	"context"
	stdjson "encoding/json"
	"time"

	"github.com/docuchat/billing/internal/api/dto"
	"github.com/docuchat/billing/internal/domain/billingevent"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/types"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	stripesdk "github.com/stripe/stripe-go/v82"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// BillingEventService is the webhook idempotency ledger plus the dispatch to
// type-specific handlers. Exactly one ledger row exists per external event
// id regardless of how many times the transport delivers it.
type BillingEventService interface {
	RecordAndDispatch(ctx context.Context, req *dto.BillingEventRequest) (*dto.BillingEventResponse, error)
}

type billingEventService struct {
	ServiceParams
	syncService SubscriptionSyncService
	handlers    map[types.WebhookEventType]eventHandler
}

type eventHandler func(ctx context.Context, payload stdjson.RawMessage) error

func NewBillingEventService(params ServiceParams, syncService SubscriptionSyncService) BillingEventService {
	s := &billingEventService{
		ServiceParams: params,
		syncService:   syncService,
	}
	s.handlers = map[types.WebhookEventType]eventHandler{
		types.WebhookEventTypeSubscriptionCreated:     s.handleSubscriptionEvent,
		types.WebhookEventTypeSubscriptionUpdated:     s.handleSubscriptionEvent,
		types.WebhookEventTypeSubscriptionDeleted:     s.handleSubscriptionEvent,
		types.WebhookEventTypeCheckoutSessionComplete: s.handleCheckoutSessionCompleted,
		types.WebhookEventTypeInvoicePaymentFailed:    s.handleInvoicePaymentFailed,
	}
	return s
}

func (s *billingEventService) RecordAndDispatch(ctx context.Context, req *dto.BillingEventRequest) (*dto.BillingEventResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.BillingEventRepo.GetByEventID(ctx, req.EventID)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		s.Logger.Infow("billing event already recorded, skipping",
			"event_id", req.EventID,
			"event_type", req.EventType,
			"processed", existing.Processed,
		)
		return dto.NewBillingEventResponse(existing, true), nil
	}

	event := &billingevent.BillingEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_EVENT),
		EventID:   req.EventID,
		EventType: req.EventType,
		Payload:   req.Payload,
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	if err := s.BillingEventRepo.Create(ctx, event); err != nil {
		// A concurrent delivery of the same event id won the insert.
		if ierr.IsAlreadyExists(err) {
			s.Logger.Infow("billing event recorded concurrently, skipping",
				"event_id", req.EventID,
			)
			event.Processed = true
			return dto.NewBillingEventResponse(event, true), nil
		}
		return nil, err
	}

	if err := s.dispatch(ctx, event); err != nil {
		event.ProcessingError = lo.ToPtr(err.Error())
		event.RetryCount++
		if updateErr := s.BillingEventRepo.Update(ctx, event); updateErr != nil {
			s.Logger.Errorw("failed to record billing event failure",
				"event_id", req.EventID,
				"error", updateErr,
			)
		}
		// Propagate so the HTTP layer answers 500 and the transport
		// redelivers.
		return nil, err
	}

	now := time.Now().UTC()
	event.Processed = true
	event.ProcessedAt = &now
	if err := s.BillingEventRepo.Update(ctx, event); err != nil {
		return nil, err
	}

	return dto.NewBillingEventResponse(event, false), nil
}

func (s *billingEventService) dispatch(ctx context.Context, event *billingevent.BillingEvent) error {
	handler, ok := s.handlers[types.WebhookEventType(event.EventType)]
	if !ok {
		s.Logger.Infow("no handler for billing event type, ignoring",
			"event_id", event.EventID,
			"event_type", event.EventType,
		)
		return nil
	}

	s.Logger.Infow("dispatching billing event",
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
	return handler(ctx, event.Payload)
}

// handleSubscriptionEvent covers created, updated and deleted: all three
// reduce to syncing the provider object into the local row, since deletion
// arrives with status canceled.
func (s *billingEventService) handleSubscriptionEvent(ctx context.Context, payload stdjson.RawMessage) error {
	var stripeSub stripesdk.Subscription
	if err := json.Unmarshal(payload, &stripeSub); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed subscription payload").
			Mark(ierr.ErrValidation)
	}

	organizationID, err := s.resolveOrganization(ctx, stripeSub.Metadata, stripeSub.Customer)
	if err != nil {
		return err
	}

	_, err = s.syncService.SyncSubscriptionToDatabase(ctx, &stripeSub, organizationID)
	return err
}

// handleCheckoutSessionCompleted forces a full reconciliation: the session
// object itself does not carry the final subscription state, which only
// becomes readable at the provider shortly after completion.
func (s *billingEventService) handleCheckoutSessionCompleted(ctx context.Context, payload stdjson.RawMessage) error {
	var session stripesdk.CheckoutSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed checkout session payload").
			Mark(ierr.ErrValidation)
	}

	organizationID, err := s.resolveOrganization(ctx, session.Metadata, session.Customer)
	if err != nil {
		return err
	}

	return s.syncService.SyncOrganization(ctx, organizationID)
}

func (s *billingEventService) handleInvoicePaymentFailed(ctx context.Context, payload stdjson.RawMessage) error {
	var invoice stripesdk.Invoice
	if err := json.Unmarshal(payload, &invoice); err != nil {
		return ierr.WithError(err).
			WithHint("Malformed invoice payload").
			Mark(ierr.ErrValidation)
	}

	organizationID, err := s.resolveOrganization(ctx, invoice.Metadata, invoice.Customer)
	if err != nil {
		return err
	}

	s.Logger.Warnw("invoice payment failed, reconciling organization",
		"organization_id", organizationID,
		"stripe_invoice_id", invoice.ID,
	)
	return s.syncService.SyncOrganization(ctx, organizationID)
}

// resolveOrganization attributes a provider object to a tenant: the
// organization_id metadata stamped at checkout wins, otherwise the customer
// id is looked up.
func (s *billingEventService) resolveOrganization(ctx context.Context, metadata types.Metadata, customer *stripesdk.Customer) (string, error) {
	if organizationID, ok := metadata[types.MetadataKeyOrganizationID]; ok && organizationID != "" {
		return organizationID, nil
	}

	if customer != nil && customer.ID != "" {
		org, err := s.OrganizationRepo.GetByStripeCustomerID(ctx, customer.ID)
		if err != nil {
			return "", err
		}
		return org.ID, nil
	}

	return "", ierr.NewError("cannot attribute event to an organization").
		WithHint("The provider object carries neither organization metadata nor a customer id").
		Mark(ierr.ErrValidation)
}
