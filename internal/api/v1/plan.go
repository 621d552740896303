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

type PlanHandler struct {
	planCatalog service.PlanCatalogService
	logger      *logger.Logger
}

func NewPlanHandler(planCatalog service.PlanCatalogService, logger *logger.Logger) *PlanHandler {
	return &PlanHandler{
		planCatalog: planCatalog,
		logger:      logger,
	}
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	resp, err := h.planCatalog.ListPlans(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	planType := types.PlanType(c.Param("type"))
	if err := planType.Validate(); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Unknown plan type").
			Mark(ierr.ErrValidation))
		return
	}

	plan, err := h.planCatalog.GetPlan(c.Request.Context(), planType)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPricingPlanResponse(plan))
}
