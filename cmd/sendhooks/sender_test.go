package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/funnelhook/webhook_service/internal/api/routes"
	"github.com/funnelhook/webhook_service/internal/infrastructure/config"
	"github.com/funnelhook/webhook_service/internal/infrastructure/di"
	"github.com/funnelhook/webhook_service/pkg/logger"
	"github.com/funnelhook/webhook_service/pkg/webhook"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSamples(t *testing.T) {
	samples, err := LoadSamples()
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, "Quiz Completed", samples[0].Name)
	assert.Equal(t, "Payment Succeeded", samples[1].Name)
	assert.Equal(t, "Lead Created", samples[2].Name)
	for _, s := range samples {
		assert.NotContains(t, string(s.Body), "\n")
	}
}

func TestSender_AgainstServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{AllowedOrigins: []string{"*"}},
		Webhook: config.WebhookConfig{
			Secret:             "s3cr3t",
			SignatureHeader:    "X-FunnelFox-Signature",
			RequireSignature:   true,
			AcknowledgeUnknown: true,
			MaxPayloadBytes:    1 << 20,
		},
	}
	server := httptest.NewServer(routes.SetupRoutes(di.NewContainer(cfg, logger.NewNop())))
	defer server.Close()

	samples, err := LoadSamples()
	require.NoError(t, err)

	t.Run("signed deliveries pass", func(t *testing.T) {
		var out bytes.Buffer
		sender := NewSender(server.URL+"/", "s3cr3t", "X-FunnelFox-Signature", 5*time.Second, logger.NewNop())

		assert.True(t, sender.Run(context.Background(), samples, &out))
		assert.Contains(t, out.String(), "Event quiz.completed processed successfully")
		assert.Contains(t, out.String(), "Event payment.succeeded processed successfully")
		assert.Contains(t, out.String(), "Event lead.created processed successfully")
		assert.Contains(t, out.String(), "All tests passed!")
	})

	t.Run("unsigned deliveries fail", func(t *testing.T) {
		var out bytes.Buffer
		sender := NewSender(server.URL, "", "X-FunnelFox-Signature", 5*time.Second, logger.NewNop())

		assert.False(t, sender.Run(context.Background(), samples, &out))
		assert.Contains(t, out.String(), "Status: 401")
		assert.Contains(t, out.String(), "Some tests failed.")
	})
}

func TestSender_Headers(t *testing.T) {
	var got http.Header
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
		assert.Equal(t, webhookPath, r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	sender := NewSender(server.URL, "s3cr3t", "X-Sig", time.Second, logger.NewNop())
	result := sender.Send(context.Background(), Sample{Name: "a", Body: []byte(`{"a":1}`)})

	require.NoError(t, result.Err)
	assert.True(t, result.OK())
	assert.Equal(t, userAgent, got.Get("User-Agent"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, webhook.ComputeSignature(body, "s3cr3t"), got.Get("X-Sig"))
}

func TestSender_StopsWhenServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	sender := NewSender(url, "", "X-FunnelFox-Signature", time.Second, logger.NewNop())
	samples, err := LoadSamples()
	require.NoError(t, err)

	results := make([]Result, 0, len(samples))
	for _, s := range samples {
		results = append(results, sender.Send(context.Background(), s))
	}

	require.Error(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.ErrorIs(t, results[2].Err, gobreaker.ErrOpenState)
}
