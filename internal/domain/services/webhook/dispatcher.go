package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/funnelhook/webhook_service/internal/domain/entities"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrPayloadMismatch is returned when an event's payload variant does not belong to its type's category
var ErrPayloadMismatch = errors.New("payload does not match event category")

// Outcome describes what the dispatcher did with an event
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// EventLogger is the logging capability the dispatcher needs.
// *logger.Logger and *zap.SugaredLogger both satisfy it.
type EventLogger interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// Recorder receives dispatch outcomes for metrics
type Recorder interface {
	RecordEvent(category, eventType, outcome string)
	RecordPaymentAmount(currency, eventType string, amount float64)
}

// Policy holds the dispatcher's acceptance rules
type Policy struct {
	// AcknowledgeUnknown answers unrecognised event types with success so that
	// senders adding new types do not see failures.
	AcknowledgeUnknown bool
}

// DefaultPolicy acknowledges unknown event types
func DefaultPolicy() Policy {
	return Policy{AcknowledgeUnknown: true}
}

// Dispatcher classifies webhook events and routes them to category handlers.
// It holds no per-event state and is safe for concurrent use.
type Dispatcher struct {
	log      EventLogger
	recorder Recorder
	policy   Policy
	now      func() time.Time
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithPolicy overrides the default policy
func WithPolicy(p Policy) Option {
	return func(d *Dispatcher) {
		d.policy = p
	}
}

// WithClock sets the time source used for response timestamps
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(log EventLogger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:      log,
		recorder: nopRecorder{},
		policy:   DefaultPolicy(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Policy returns the dispatcher's policy
func (d *Dispatcher) Policy() Policy {
	return d.policy
}

// Handle processes an event and returns the acknowledgement for the sender. It never panics.
func (d *Dispatcher) Handle(ctx context.Context, event *entities.WebhookEvent) entities.WebhookResponse {
	resp, _ := d.Dispatch(ctx, event)
	return resp
}

// Dispatch is Handle that also reports the outcome, for callers that map it to a transport status
func (d *Dispatcher) Dispatch(ctx context.Context, event *entities.WebhookEvent) (resp entities.WebhookResponse, outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			resp, outcome = d.fail(event, fmt.Errorf("panic while handling event: %v", r))
		}
	}()

	if event == nil {
		return d.fail(nil, errors.New("nil event"))
	}

	d.log.Infow(fmt.Sprintf("Received webhook event: %s", event.Type), "event_id", event.ID)

	category := event.Type.Category()
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("webhook.event_id", event.ID),
		attribute.String("webhook.event_type", string(event.Type)),
		attribute.String("webhook.category", string(category)),
	)

	if category == entities.EventCategoryUnclassified {
		return d.unclassified(event)
	}

	if event.Data == nil || event.Data.Category() != category {
		return d.fail(event, fmt.Errorf("%w: %s event carries %T", ErrPayloadMismatch, event.Type, event.Data))
	}

	switch data := event.Data.(type) {
	case entities.QuizData:
		d.handleQuiz(event, data)
	case entities.PaymentData:
		d.handlePayment(event, data)
	case entities.LeadData:
		d.handleLead(event, data)
	default:
		return d.fail(event, fmt.Errorf("%w: unexpected payload %T", ErrPayloadMismatch, event.Data))
	}

	d.recorder.RecordEvent(string(category), string(event.Type), string(OutcomeProcessed))
	return d.respond(true, fmt.Sprintf("Event %s processed successfully", event.Type)), OutcomeProcessed
}

func (d *Dispatcher) unclassified(event *entities.WebhookEvent) (entities.WebhookResponse, Outcome) {
	d.log.Warnw(fmt.Sprintf("Unknown webhook event type: %s", event.Type),
		"event_id", event.ID,
		"created", event.Created,
	)

	outcome := OutcomeIgnored
	if !d.policy.AcknowledgeUnknown {
		outcome = OutcomeRejected
	}
	d.recorder.RecordEvent(string(entities.EventCategoryUnclassified), "other", string(outcome))

	message := fmt.Sprintf("Event type %s received but not processed", event.Type)
	return d.respond(d.policy.AcknowledgeUnknown, message), outcome
}

func (d *Dispatcher) fail(event *entities.WebhookEvent, err error) (entities.WebhookResponse, Outcome) {
	category, eventType := string(entities.EventCategoryUnclassified), "other"
	fields := []interface{}{"error", err}
	if event != nil {
		fields = append(fields, "event_id", event.ID, "event_type", string(event.Type))
		if event.Type.Recognized() {
			category, eventType = string(event.Type.Category()), string(event.Type)
		}
	}

	d.log.Errorw("Error processing webhook", fields...)
	d.recorder.RecordEvent(category, eventType, string(OutcomeFailed))

	return d.respond(false, "Internal server error"), OutcomeFailed
}

func (d *Dispatcher) respond(success bool, message string) entities.WebhookResponse {
	return entities.NewWebhookResponse(success, message, d.now())
}

type nopRecorder struct{}

func (nopRecorder) RecordEvent(string, string, string)          {}
func (nopRecorder) RecordPaymentAmount(string, string, float64) {}
