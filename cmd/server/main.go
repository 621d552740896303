package main

import (
	"context"
	"time"

	"github.com/docuchat/billing/internal/api"
	v1 "github.com/docuchat/billing/internal/api/v1"
	"github.com/docuchat/billing/internal/cache"
	"github.com/docuchat/billing/internal/config"
	"github.com/docuchat/billing/internal/integration/stripe"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/postgres"
	"github.com/docuchat/billing/internal/repository"
	"github.com/docuchat/billing/internal/service"
	"github.com/docuchat/billing/internal/validator"
	"github.com/docuchat/billing/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Local development loads config from a .env file; missing file is fine
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(
			// Core
			validator.NewValidator,
			config.NewConfig,
			logger.NewLogger,
			cache.NewInMemoryCache,
			postgres.NewDB,

			// Repositories
			repository.NewOrganizationRepository,
			repository.NewSubscriptionRepository,
			repository.NewBillingEventRepository,
			repository.NewPricingPlanRepository,

			// Provider boundary
			stripe.NewClient,
			stripe.NewGateway,

			// Services
			service.NewServiceParams,
			service.NewPlanCatalogService,
			service.NewSubscriptionSyncService,
			service.NewBillingEventService,
			service.NewBillingService,

			// Background sync
			provideSyncer,
			worker.NewSyncScheduler,

			// HTTP
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startAPIServer),
	)
	app.Run()
}

func provideSyncer(syncService service.SubscriptionSyncService) worker.Syncer {
	return syncService
}

func provideHandlers(
	logger *logger.Logger,
	gateway stripe.Gateway,
	billingService service.BillingService,
	eventService service.BillingEventService,
	planCatalog service.PlanCatalogService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Webhook:      v1.NewWebhookHandler(eventService, gateway, logger),
		Subscription: v1.NewSubscriptionHandler(billingService, logger),
		Plan:         v1.NewPlanHandler(planCatalog, logger),
	}
}

func provideRouter(handlers api.Handlers) *gin.Engine {
	return api.NewRouter(handlers)
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	db *postgres.DB,
	scheduler *worker.SyncScheduler,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			if err := scheduler.Shutdown(ctx); err != nil {
				log.Errorw("background sync drain incomplete", "error", err)
			}
			db.Close()
			return nil
		},
	})
}
