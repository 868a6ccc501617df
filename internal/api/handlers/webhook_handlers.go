package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/funnelhook/webhook_service/internal/api/middleware"
	"github.com/funnelhook/webhook_service/internal/domain/entities"
	"github.com/funnelhook/webhook_service/internal/domain/services/webhook"
	apperrors "github.com/funnelhook/webhook_service/pkg/errors"
	"github.com/funnelhook/webhook_service/pkg/logger"
	"github.com/funnelhook/webhook_service/pkg/metrics"
	"github.com/funnelhook/webhook_service/pkg/sanitize"
	"github.com/funnelhook/webhook_service/pkg/tracing"
	sigverify "github.com/funnelhook/webhook_service/pkg/webhook"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultSignatureHeader carries the hex HMAC-SHA256 of the raw body
	DefaultSignatureHeader = "X-FunnelFox-Signature"

	// values read before verification are capped in logs
	maxLoggedField = 256
)

// WebhookHandler receives FunnelFox webhook deliveries
type WebhookHandler struct {
	dispatcher      *webhook.Dispatcher
	validator       *sigverify.SignatureValidator
	logger          *logger.Logger
	signatureHeader string
	now             func() time.Time
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(dispatcher *webhook.Dispatcher, validator *sigverify.SignatureValidator, signatureHeader string, log *logger.Logger) *WebhookHandler {
	if signatureHeader == "" {
		signatureHeader = DefaultSignatureHeader
	}
	return &WebhookHandler{
		dispatcher:      dispatcher,
		validator:       validator,
		logger:          log,
		signatureHeader: signatureHeader,
		now:             time.Now,
	}
}

// envelopeHint holds the fields logged before the body is verified and fully decoded
type envelopeHint struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// HandleWebhook handles POST /api/funnelfox/v1/webhooks
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	ctx := c.Request.Context()
	log := middleware.RequestLogger(c, h.logger).WithContext(ctx)

	body, err := readBody(c)
	if err != nil {
		log.Warnw("Failed to read webhook body", "error", err)
		tracing.RecordError(c, err)
		respondError(c, err)
		return
	}

	signature := c.GetHeader(h.signatureHeader)

	var hint envelopeHint
	_ = json.Unmarshal(body, &hint)
	log.Infow("Webhook received",
		"event_id", sanitize.LogField(hint.ID, maxLoggedField),
		"event_type", sanitize.LogField(hint.Type, maxLoggedField),
		"user_agent", sanitize.LogField(c.Request.UserAgent(), maxLoggedField),
		"has_signature", signature != "",
	)

	if err := h.verify(body, signature); err != nil {
		log.Warnw("Invalid webhook signature",
			"event_id", sanitize.LogField(hint.ID, maxLoggedField),
			"reason", err.Error(),
		)
		tracing.RecordError(c, err)
		respondError(c, err)
		return
	}

	event, err := entities.DecodeWebhookEvent(body)
	if err != nil {
		log.Warnw("Rejected webhook payload", "event_id", sanitize.LogField(hint.ID, maxLoggedField), "error", err)
		tracing.RecordError(c, err)
		respondError(c, apperrors.InvalidPayload(err))
		return
	}

	tracing.AddSpanEvent(c, "webhook.decoded",
		attribute.String("webhook.event_id", event.ID),
		attribute.String("webhook.event_type", string(event.Type)),
	)

	resp, outcome := h.dispatcher.Dispatch(ctx, event)
	status := statusForOutcome(outcome)

	eventLog := middleware.RequestLogger(c, h.logger).ForEvent(event.ID, string(event.Type))
	switch outcome {
	case webhook.OutcomeFailed:
		eventLog.CtxError(ctx, "Webhook dispatch failed", "status_code", status)
	case webhook.OutcomeRejected:
		eventLog.CtxWarn(ctx, "Webhook rejected", "status_code", status)
	default:
		eventLog.CtxInfo(ctx, "Webhook acknowledged", "outcome", string(outcome), "status_code", status)
	}

	c.JSON(status, resp)
}

// verify applies the signature policy and records the result
func (h *WebhookHandler) verify(body []byte, signature string) error {
	if !h.validator.ShouldVerify(signature) {
		metrics.RecordSignatureVerification("skipped")
		return nil
	}

	switch err := h.validator.Validate(body, signature); {
	case err == nil:
		metrics.RecordSignatureVerification("valid")
		return nil
	case errors.Is(err, sigverify.ErrMissingSignature):
		metrics.RecordSignatureVerification("missing")
		return apperrors.MissingSignature()
	default:
		metrics.RecordSignatureVerification("invalid")
		return apperrors.InvalidSignature()
	}
}

// TestWebhook handles POST /api/funnelfox/v1/webhooks/test, echoing the body back.
// Only mounted in development.
func (h *WebhookHandler) TestWebhook(c *gin.Context) {
	log := middleware.RequestLogger(c, h.logger)

	body, err := readBody(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if !json.Valid(body) {
		respondError(c, apperrors.InvalidPayload(errors.New("body is not valid JSON")))
		return
	}

	log.Infow("Test webhook received", "body", string(body))

	c.JSON(http.StatusOK, entities.TestWebhookResponse{
		WebhookResponse: entities.NewWebhookResponse(true, "Test webhook received", h.now()),
		ReceivedData:    body,
	})
}

// readBody reads the request body, mapping a body over the size limit to 413
func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err == nil {
		return body, nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, apperrors.PayloadTooLarge(tooLarge.Limit)
	}
	return nil, apperrors.InvalidPayload(err)
}

func statusForOutcome(outcome webhook.Outcome) int {
	switch outcome {
	case webhook.OutcomeProcessed, webhook.OutcomeIgnored:
		return http.StatusOK
	case webhook.OutcomeRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// NotFound answers unmatched routes
func NotFound(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.RequestLogger(c, log).Warnw("Route not found",
			"url", c.Request.URL.String(),
			"method", c.Request.Method,
		)
		respondError(c, apperrors.New(apperrors.ErrCodeNotFound, "Route not found"))
	}
}

// MethodNotAllowed answers known routes called with the wrong method
func MethodNotAllowed(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.RequestLogger(c, log).Warnw("Method not allowed",
			"url", c.Request.URL.String(),
			"method", c.Request.Method,
		)
		respondError(c, apperrors.New(apperrors.ErrCodeMethodNotAllowed, "Method not allowed"))
	}
}
