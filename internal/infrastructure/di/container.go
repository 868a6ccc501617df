package di

import (
	"time"

	"github.com/funnelhook/webhook_service/internal/domain/services/webhook"
	"github.com/funnelhook/webhook_service/internal/infrastructure/config"
	"github.com/funnelhook/webhook_service/pkg/health"
	"github.com/funnelhook/webhook_service/pkg/logger"
	"github.com/funnelhook/webhook_service/pkg/metrics"
	sigverify "github.com/funnelhook/webhook_service/pkg/webhook"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *logger.Logger
	ZapLog *zap.Logger

	// Domain services
	Dispatcher         *webhook.Dispatcher
	SignatureValidator *sigverify.SignatureValidator
	HealthChecker      *health.HealthChecker
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, log *logger.Logger) *Container {
	container := &Container{
		Config: cfg,
		Logger: log,
		ZapLog: log.Zap(),
	}

	container.initializeDomainServices()
	container.initializeHealthChecks()

	return container
}

// initializeDomainServices wires the webhook pipeline from configuration
func (c *Container) initializeDomainServices() {
	c.Dispatcher = webhook.NewDispatcher(
		c.Logger,
		webhook.WithRecorder(metrics.NewEventRecorder()),
		webhook.WithPolicy(webhook.Policy{AcknowledgeUnknown: c.Config.Webhook.AcknowledgeUnknown}),
	)

	c.SignatureValidator = sigverify.NewSignatureValidator(sigverify.SignaturePolicy{
		Secret:           c.Config.Webhook.Secret,
		RequireSignature: c.Config.Webhook.RequireSignature,
	})

	if !c.SignatureValidator.Enabled() {
		c.Logger.Warnw("Webhook secret not configured, signatures will not be verified")
	}
}

// initializeHealthChecks registers the checks reported by /health
func (c *Container) initializeHealthChecks() {
	c.HealthChecker = health.NewHealthChecker(5 * time.Second)
	c.HealthChecker.Register(health.NewSignatureChecker(c.SignatureValidator.Enabled(), c.Config.IsProduction()))

	if c.Config.Tracing.Enabled {
		c.HealthChecker.Register(health.NewCollectorChecker(c.Config.Tracing.OTLPEndpoint))
	}
}

// GetDispatcher returns the webhook event dispatcher
func (c *Container) GetDispatcher() *webhook.Dispatcher {
	return c.Dispatcher
}

// GetSignatureValidator returns the webhook signature validator
func (c *Container) GetSignatureValidator() *sigverify.SignatureValidator {
	return c.SignatureValidator
}
