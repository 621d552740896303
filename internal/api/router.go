package api

import (
	v1 "github.com/docuchat/billing/internal/api/v1"
	"github.com/docuchat/billing/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Webhook      *v1.WebhookHandler
	Subscription *v1.SubscriptionHandler
	Plan         *v1.PlanHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.ContextMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Webhook routes: signature-verified, no identity headers
	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/stripe", handlers.Webhook.HandleStripeWebhook)
	}

	// Subscription routes
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.GET("/current", handlers.Subscription.GetCurrentSubscription)
		subscriptions.POST("/checkout", handlers.Subscription.CreateCheckoutSession)
		subscriptions.POST("/change", handlers.Subscription.ChangePlan)
		subscriptions.POST("/cancel", handlers.Subscription.CancelSubscription)
		subscriptions.POST("/reactivate", handlers.Subscription.ReactivateSubscription)
	}

	// Plan catalog routes
	plans := router.Group("/plans")
	{
		plans.GET("", handlers.Plan.ListPlans)
		plans.GET("/:type", handlers.Plan.GetPlan)
	}
}
