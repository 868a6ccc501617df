package handlers

import (
	"net/http"
	"time"

	"github.com/funnelhook/webhook_service/pkg/health"
	"github.com/funnelhook/webhook_service/pkg/logger"
	"github.com/funnelhook/webhook_service/pkg/version"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checker     *health.HealthChecker
	logger      *logger.Logger
	environment string
	startTime   time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker *health.HealthChecker, environment string, logger *logger.Logger) *HealthHandler {
	if checker == nil {
		checker = health.NewHealthChecker(0)
	}
	return &HealthHandler{
		checker:     checker,
		logger:      logger,
		environment: environment,
		startTime:   time.Now(),
	}
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status      health.Status                 `json:"status"`
	Service     string                        `json:"service"`
	Version     string                        `json:"version"`
	Environment string                        `json:"environment"`
	Uptime      string                        `json:"uptime"`
	Timestamp   time.Time                     `json:"timestamp"`
	Checks      map[string]health.CheckResult `json:"checks"`
}

// Health runs the registered checks. Degraded still answers 200.
func (h *HealthHandler) Health(c *gin.Context) {
	status, checks := h.checker.Check(c.Request.Context())

	info := version.Get()
	response := HealthResponse{
		Status:      status,
		Service:     info.Service,
		Version:     info.Version,
		Environment: h.environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now().UTC(),
		Checks:      checks,
	}

	statusCode := http.StatusOK
	if status == health.StatusUnhealthy {
		h.logger.Warnw("Health check failed", "checks", checks)
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

// Live is the liveness probe
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// Metrics exposes Prometheus metrics
func (h *HealthHandler) Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
