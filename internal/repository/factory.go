package repository

import (
	"github.com/docuchat/billing/internal/domain/billingevent"
	"github.com/docuchat/billing/internal/domain/organization"
	"github.com/docuchat/billing/internal/domain/pricingplan"
	"github.com/docuchat/billing/internal/domain/subscription"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/postgres"
	postgresRepo "github.com/docuchat/billing/internal/repository/postgres"
)

func NewOrganizationRepository(db *postgres.DB, logger *logger.Logger) organization.Repository {
	return postgresRepo.NewOrganizationRepository(db, logger)
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(db, logger)
}

func NewBillingEventRepository(db *postgres.DB, logger *logger.Logger) billingevent.Repository {
	return postgresRepo.NewBillingEventRepository(db, logger)
}

func NewPricingPlanRepository(db *postgres.DB, logger *logger.Logger) pricingplan.Repository {
	return postgresRepo.NewPricingPlanRepository(db, logger)
}
