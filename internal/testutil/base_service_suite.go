package testutil

import (
	"context"
	"time"

	"github.com/docuchat/billing/internal/cache"
	"github.com/docuchat/billing/internal/config"
	"github.com/docuchat/billing/internal/domain/billingevent"
	"github.com/docuchat/billing/internal/domain/organization"
	"github.com/docuchat/billing/internal/domain/pricingplan"
	"github.com/docuchat/billing/internal/domain/subscription"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/postgres"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	OrganizationRepo organization.Repository
	SubscriptionRepo subscription.Repository
	BillingEventRepo billingevent.Repository
	PricingPlanRepo  pricingplan.Repository
}

// BaseServiceTestSuite provides common functionality for all service test
// suites: in-memory stores, a fake payment gateway, a silent logger and the
// default configuration.
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	gateway *FakeGateway
	db      postgres.IClient
	cache   cache.Cache
	logger  *logger.Logger
	config  *config.Configuration
	now     time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	s.config = config.GetDefaultConfig()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.gateway = NewFakeGateway()
	s.db = NewMockPostgresClient(s.logger)
	s.cache = cache.NewInMemoryCache(s.config)
	s.now = time.Now().UTC()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		OrganizationRepo: NewInMemoryOrganizationStore(),
		SubscriptionRepo: NewInMemorySubscriptionStore(),
		BillingEventRepo: NewInMemoryBillingEventStore(),
		PricingPlanRepo:  NewInMemoryPricingPlanStore(),
	}
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

// GetGateway returns the fake payment gateway
func (s *BaseServiceTestSuite) GetGateway() *FakeGateway {
	return s.gateway
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current time when the test started
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
