package health

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticChecker struct {
	name   string
	result CheckResult
	delay  time.Duration
}

func (s staticChecker) Name() string { return s.name }

func (s staticChecker) Check(ctx context.Context) CheckResult {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
		}
	}
	return s.result
}

func TestHealthChecker_Aggregates(t *testing.T) {
	tests := []struct {
		name    string
		results []CheckResult
		want    Status
	}{
		{"no checks", nil, StatusHealthy},
		{"all healthy", []CheckResult{NewHealthyResult("a", ""), NewHealthyResult("b", "")}, StatusHealthy},
		{"one degraded", []CheckResult{NewHealthyResult("a", ""), NewDegradedResult("b", "slow")}, StatusDegraded},
		{"unhealthy wins", []CheckResult{NewDegradedResult("a", ""), NewUnhealthyResult("b", errors.New("down"))}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker(time.Second)
			for _, r := range tt.results {
				hc.Register(staticChecker{name: r.Component, result: r})
			}

			status, results := hc.Check(context.Background())
			assert.Equal(t, tt.want, status)
			assert.Len(t, results, len(tt.results))
		})
	}
}

func TestHealthChecker_Timeout(t *testing.T) {
	hc := NewHealthChecker(20 * time.Millisecond)
	hc.Register(staticChecker{name: "slow", result: NewHealthyResult("slow", ""), delay: time.Second})

	status, results := hc.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, status)
	assert.Contains(t, results["slow"].Error, "timed out")
}

func TestSignatureChecker(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, StatusHealthy, NewSignatureChecker(true, true).Check(ctx).Status)
	assert.Equal(t, StatusHealthy, NewSignatureChecker(false, false).Check(ctx).Status)
	assert.Equal(t, StatusDegraded, NewSignatureChecker(false, true).Check(ctx).Status)
}

func TestCollectorChecker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	result := NewCollectorChecker(addr).Check(context.Background())
	assert.Equal(t, StatusHealthy, result.Status)
	assert.Equal(t, addr, result.Metadata["endpoint"])

	require.NoError(t, ln.Close())

	result = NewCollectorChecker(addr).Check(context.Background())
	assert.Equal(t, StatusDegraded, result.Status)
}
