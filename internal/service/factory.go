package service

import (
	"github.com/docuchat/billing/internal/cache"
	"github.com/docuchat/billing/internal/config"
	"github.com/docuchat/billing/internal/domain/billingevent"
	"github.com/docuchat/billing/internal/domain/organization"
	"github.com/docuchat/billing/internal/domain/pricingplan"
	"github.com/docuchat/billing/internal/domain/subscription"
	"github.com/docuchat/billing/internal/integration/stripe"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/postgres"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache

	// Repositories
	OrganizationRepo organization.Repository
	SubscriptionRepo subscription.Repository
	BillingEventRepo billingevent.Repository
	PricingPlanRepo  pricingplan.Repository

	// Provider boundary
	Gateway stripe.Gateway
}

func NewServiceParams(
	logger *logger.Logger,
	cfg *config.Configuration,
	db *postgres.DB,
	cacheClient cache.Cache,
	organizationRepo organization.Repository,
	subscriptionRepo subscription.Repository,
	billingEventRepo billingevent.Repository,
	pricingPlanRepo pricingplan.Repository,
	gateway stripe.Gateway,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           cfg,
		DB:               db,
		Cache:            cacheClient,
		OrganizationRepo: organizationRepo,
		SubscriptionRepo: subscriptionRepo,
		BillingEventRepo: billingEventRepo,
		PricingPlanRepo:  pricingPlanRepo,
		Gateway:          gateway,
	}
}
