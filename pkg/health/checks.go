package health

import (
	"context"
	"net"
	"time"
)

// SignatureChecker reports whether inbound webhooks are authenticated.
// Running production without a secret accepts forged events, so it degrades there.
type SignatureChecker struct {
	secretConfigured bool
	production       bool
}

// NewSignatureChecker creates a checker for the webhook signature policy
func NewSignatureChecker(secretConfigured, production bool) *SignatureChecker {
	return &SignatureChecker{secretConfigured: secretConfigured, production: production}
}

func (c *SignatureChecker) Name() string { return "signature_verification" }

func (c *SignatureChecker) Check(context.Context) CheckResult {
	switch {
	case c.secretConfigured:
		return NewHealthyResult(c.Name(), "webhook signatures verified")
	case c.production:
		return NewDegradedResult(c.Name(), "webhook secret not configured, events accepted unauthenticated")
	default:
		return NewHealthyResult(c.Name(), "signature verification disabled")
	}
}

// CollectorChecker dials the OTLP collector. Trace export is best effort, so an
// unreachable collector degrades the service rather than failing it.
type CollectorChecker struct {
	endpoint string
	dialer   net.Dialer
}

// NewCollectorChecker creates a checker for the OTLP endpoint (host:port)
func NewCollectorChecker(endpoint string) *CollectorChecker {
	return &CollectorChecker{endpoint: endpoint}
}

func (c *CollectorChecker) Name() string { return "trace_collector" }

func (c *CollectorChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.endpoint)
	if err != nil {
		return NewDegradedResult(c.Name(), "collector unreachable: "+err.Error()).
			WithDuration(time.Since(start)).
			WithMetadata("endpoint", c.endpoint)
	}
	_ = conn.Close()

	return NewHealthyResult(c.Name(), "collector reachable").
		WithDuration(time.Since(start)).
		WithMetadata("endpoint", c.endpoint)
}
