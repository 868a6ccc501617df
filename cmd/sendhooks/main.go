// Command sendhooks posts sample FunnelFox events to a running webhook server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/funnelhook/webhook_service/pkg/logger"
)

func main() {
	baseURL := flag.String("url", envOr("WEBHOOK_BASE_URL", "http://localhost:3000"), "base URL of the webhook server")
	secret := flag.String("secret", os.Getenv("WEBHOOK_SECRET"), "shared secret used to sign bodies; empty sends unsigned")
	header := flag.String("header", "X-FunnelFox-Signature", "signature header name")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	log := logger.New("warn", "development")
	defer func() { _ = log.Sync() }()

	samples, err := LoadSamples()
	if err != nil {
		log.Fatal("Failed to load samples", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender := NewSender(*baseURL, *secret, *header, *timeout, log)
	if !sender.Run(ctx, samples, os.Stdout) {
		stop()
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
