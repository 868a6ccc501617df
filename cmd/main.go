package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/funnelhook/webhook_service/internal/api/routes"
	"github.com/funnelhook/webhook_service/internal/infrastructure/config"
	"github.com/funnelhook/webhook_service/internal/infrastructure/di"
	"github.com/funnelhook/webhook_service/pkg/logger"
	"github.com/funnelhook/webhook_service/pkg/tracing"
	"github.com/funnelhook/webhook_service/pkg/version"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer func() { _ = log.Sync() }()

	// Initialize tracing
	shutdownTracing, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.OTLPEndpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Environment,
		SampleRatio: cfg.Tracing.SampleRatio,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	container := di.NewContainer(cfg, log)
	router := routes.SetupRoutes(container)

	server := &http.Server{
		Addr:           cfg.Server.Addr(),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	log.Infow("FunnelFox Webhook Server started",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"environment", cfg.Environment,
		"version", version.Get().Version,
		"signature_verification", container.SignatureValidator.Enabled(),
	)
	log.Infow("  POST " + routes.WebhookBasePath + "/webhooks - FunnelFox webhook endpoint")
	if cfg.TestEndpointEnabled() {
		log.Infow("  POST " + routes.WebhookBasePath + "/webhooks/test - Test webhook endpoint (dev only)")
	}

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Infow("Shutdown signal received, shutting down gracefully", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace())
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorw("Server forced to shutdown", "error", err)
	}

	if err := shutdownTracing(ctx); err != nil {
		log.Warnw("Error flushing traces", "error", err)
	}

	log.Info("Server exited")
}
