package v1

import (
	"net/http"

	"github.com/docuchat/billing/internal/api/dto"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/service"
	"github.com/docuchat/billing/internal/types"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	billingService service.BillingService
	logger         *logger.Logger
}

func NewSubscriptionHandler(
	billingService service.BillingService,
	logger *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// GetCurrentSubscription answers the organization's subscription state,
// pulling from the provider when the local copy is stale or ?force=true.
func (h *SubscriptionHandler) GetCurrentSubscription(c *gin.Context) {
	organizationID, err := organizationIDFromRequest(c)
	if err != nil {
		c.Error(err)
		return
	}

	force := c.Query("force") == "true"
	resp, err := h.billingService.GetCurrentSubscription(c.Request.Context(), organizationID, force)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) CreateCheckoutSession(c *gin.Context) {
	organizationID, err := organizationIDFromRequest(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req dto.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.billingService.CreateCheckoutSession(c.Request.Context(), organizationID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	organizationID, err := organizationIDFromRequest(c)
	if err != nil {
		c.Error(err)
		return
	}

	var req dto.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.billingService.ChangePlan(c.Request.Context(), organizationID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	organizationID, err := organizationIDFromRequest(c)
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.billingService.CancelSubscription(c.Request.Context(), organizationID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) ReactivateSubscription(c *gin.Context) {
	organizationID, err := organizationIDFromRequest(c)
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.billingService.ReactivateSubscription(c.Request.Context(), organizationID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// organizationIDFromRequest resolves the tenant a mutation applies to: the
// query parameter wins, then the identity header lifted into context.
func organizationIDFromRequest(c *gin.Context) (string, error) {
	if organizationID := c.Query("organization_id"); organizationID != "" {
		return organizationID, nil
	}
	if organizationID := types.GetOrganizationID(c.Request.Context()); organizationID != "" {
		return organizationID, nil
	}
	return "", ierr.NewError("organization id missing").
		WithHint("Provide an organization id").
		Mark(ierr.ErrValidation)
}
