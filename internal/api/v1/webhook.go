package v1

import (
	"net/http"

	"github.com/docuchat/billing/internal/api/dto"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/integration/stripe"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/service"
	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	eventService service.BillingEventService
	gateway      stripe.Gateway
	logger       *logger.Logger
}

func NewWebhookHandler(
	eventService service.BillingEventService,
	gateway stripe.Gateway,
	logger *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		eventService: eventService,
		gateway:      gateway,
		logger:       logger,
	}
}

// HandleStripeWebhook verifies and records one provider delivery. A 200
// acknowledges the event (including redeliveries of an already-recorded id);
// a 500 tells the transport to redeliver.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Could not read webhook payload").
			Mark(ierr.ErrValidation))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	event, err := h.gateway.VerifyWebhookSignature(payload, signature)
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.Infow("received stripe webhook",
		"event_id", event.ID,
		"event_type", event.Type,
	)

	_, err = h.eventService.RecordAndDispatch(c.Request.Context(), &dto.BillingEventRequest{
		EventID:   event.ID,
		EventType: string(event.Type),
		Payload:   event.Data.Raw,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}
