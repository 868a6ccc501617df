package main

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/funnelhook/webhook_service/pkg/circuitbreaker"
	apperrors "github.com/funnelhook/webhook_service/pkg/errors"
	"github.com/funnelhook/webhook_service/pkg/logger"
	"github.com/funnelhook/webhook_service/pkg/tracing"
	"github.com/funnelhook/webhook_service/pkg/webhook"

	"github.com/sony/gobreaker"
)

const (
	userAgent   = "FunnelFox-Test/1.0"
	webhookPath = "/api/funnelfox/v1/webhooks"
)

//go:embed samples.json
var samplesJSON []byte

// Sample is a named webhook body to deliver
type Sample struct {
	Name string
	Body []byte
}

// LoadSamples returns the bundled quiz, payment and lead samples in delivery order
func LoadSamples() ([]Sample, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(samplesJSON, &all); err != nil {
		return nil, fmt.Errorf("failed to parse bundled samples: %w", err)
	}

	order := []struct{ key, name string }{
		{"quiz_completed_example", "Quiz Completed"},
		{"payment_succeeded_example", "Payment Succeeded"},
		{"lead_created_example", "Lead Created"},
	}

	samples := make([]Sample, 0, len(order))
	for _, o := range order {
		raw, ok := all[o.key]
		if !ok {
			return nil, fmt.Errorf("bundled samples missing %q", o.key)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return nil, apperrors.Wrapf(err, "sample %q", o.key)
		}
		samples = append(samples, Sample{Name: o.name, Body: compact.Bytes()})
	}
	return samples, nil
}

// Result is the outcome of one delivery
type Result struct {
	Name       string
	StatusCode int
	Body       []byte
	Err        error
}

// OK reports whether the server answered 2xx
func (r Result) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Sender posts sample events to a running webhook server
type Sender struct {
	client          *http.Client
	baseURL         string
	secret          string
	signatureHeader string
	breaker         *gobreaker.CircuitBreaker
	log             *logger.Logger
}

// NewSender creates a sender. A non-empty secret signs every body.
func NewSender(baseURL, secret, signatureHeader string, timeout time.Duration, log *logger.Logger) *Sender {
	s := &Sender{
		client:          &http.Client{Timeout: timeout},
		baseURL:         strings.TrimRight(baseURL, "/"),
		secret:          secret,
		signatureHeader: signatureHeader,
		log:             log,
	}
	s.breaker = circuitbreaker.New("sendhooks", circuitbreaker.DefaultConfig(), func(name string, from, to gobreaker.State) {
		log.Warnw("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
	})
	return s
}

// Send delivers one sample. Only transport failures count against the breaker;
// a non-2xx answer means the server is up.
func (s *Sender) Send(ctx context.Context, sample Sample) Result {
	res, err := s.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+webhookPath, bytes.NewReader(sample.Body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", userAgent)
		if s.secret != "" {
			req.Header.Set(s.signatureHeader, webhook.ComputeSignature(sample.Body, s.secret))
		}
		tracing.InjectTraceContext(ctx, req.Header)

		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return Result{Name: sample.Name, StatusCode: resp.StatusCode, Body: body}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			err = fmt.Errorf("skipped, server unreachable: %w", err)
		}
		return Result{Name: sample.Name, Err: err}
	}
	return res.(Result)
}

// Run delivers every sample in order, printing each result to out.
// It reports whether all deliveries were answered with 2xx.
func (s *Sender) Run(ctx context.Context, samples []Sample, out io.Writer) bool {
	fmt.Fprintf(out, "Starting webhook tests against %s\n", s.baseURL)

	allPassed := true
	for _, sample := range samples {
		fmt.Fprintf(out, "\nTesting %s...\n", sample.Name)

		result := s.Send(ctx, sample)
		if result.Err != nil {
			fmt.Fprintf(out, "Error testing %s: %v\n", sample.Name, result.Err)
			allPassed = false
			continue
		}

		fmt.Fprintf(out, "Status: %d\n", result.StatusCode)
		fmt.Fprintf(out, "Response: %s\n", prettyJSON(result.Body))
		if !result.OK() {
			allPassed = false
		}
	}

	fmt.Fprintln(out, "\n"+strings.Repeat("=", 50))
	if allPassed {
		fmt.Fprintln(out, "All tests passed!")
	} else {
		fmt.Fprintln(out, "Some tests failed.")
	}
	return allPassed
}

func prettyJSON(body []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return string(body)
	}
	return out.String()
}
