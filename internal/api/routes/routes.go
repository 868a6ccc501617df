package routes

import (
	"github.com/funnelhook/webhook_service/internal/api/handlers"
	"github.com/funnelhook/webhook_service/internal/api/middleware"
	"github.com/funnelhook/webhook_service/internal/infrastructure/di"
	"github.com/funnelhook/webhook_service/pkg/tracing"

	"github.com/gin-gonic/gin"
)

// WebhookBasePath is the prefix FunnelFox deliveries are configured against
const WebhookBasePath = "/api/funnelfox/v1"

// SetupRoutes configures all application routes
func SetupRoutes(container *di.Container) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Global middleware - order matters
	router.Use(tracing.HTTPMiddleware())
	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(container.Logger))
	router.Use(middleware.Recovery(container.Logger))
	router.Use(middleware.CORS(container.Config.Server.AllowedOrigins))
	router.Use(middleware.RateLimit(container.Config.Server.RateLimitPerMin))
	router.Use(middleware.SecurityHeaders())

	router.NoRoute(handlers.NotFound(container.Logger))
	router.NoMethod(handlers.MethodNotAllowed(container.Logger))

	healthHandler := handlers.NewHealthHandler(container.HealthChecker, container.Config.Environment, container.Logger)

	router.GET("/health", healthHandler.Health)
	router.GET("/live", healthHandler.Live)
	router.GET("/version", handlers.VersionHandler())
	router.GET("/metrics", healthHandler.Metrics())

	webhookHandler := handlers.NewWebhookHandler(
		container.GetDispatcher(),
		container.GetSignatureValidator(),
		container.Config.Webhook.SignatureHeader,
		container.Logger,
	)

	api := router.Group(WebhookBasePath)
	api.Use(middleware.BodyLimit(container.Config.Webhook.MaxPayloadBytes))
	{
		api.POST("/webhooks", webhookHandler.HandleWebhook)

		if container.Config.TestEndpointEnabled() {
			api.POST("/webhooks/test", webhookHandler.TestWebhook)
		}
	}

	return router
}
