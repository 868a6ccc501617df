package webhook

import (
	"fmt"
	"strings"

	"github.com/funnelhook/webhook_service/internal/domain/entities"
)

// handleQuiz logs quiz and funnel lifecycle events
func (d *Dispatcher) handleQuiz(event *entities.WebhookEvent, data entities.QuizData) {
	d.log.Infow(fmt.Sprintf("Processing quiz event: %s", event.Type),
		"event_id", event.ID,
		"quiz_id", data.QuizID,
		"user_email", data.Email,
		"total_score", data.TotalScore,
	)

	switch event.Type {
	case entities.EventTypeQuizStarted, entities.EventTypeOnboardingStarted:
		d.log.Infow(startedLabel(event.Type),
			"event_id", event.ID,
			"quiz_id", data.QuizID,
			"user_email", data.Email,
		)

	case entities.EventTypeQuizCompleted, entities.EventTypeOnboardingCompleted:
		d.log.Infow(completedLabel(event.Type),
			"event_id", event.ID,
			"quiz_id", data.QuizID,
			"score", data.TotalScore,
			"answers", len(data.Replies),
		)

	case entities.EventTypeQuizAbandoned:
		d.log.Warnw("Quiz abandoned",
			"event_id", event.ID,
			"quiz_id", data.QuizID,
			"user_email", data.Email,
			"answers", len(data.Replies),
		)

	case entities.EventTypePurchaseCompleted:
		d.log.Infow("Purchase completed",
			"event_id", event.ID,
			"quiz_id", data.QuizID,
			"user_email", data.Email,
		)
	}
}

func startedLabel(t entities.EventType) string {
	if t == entities.EventTypeOnboardingStarted {
		return "Onboarding started"
	}
	return "Quiz started"
}

func completedLabel(t entities.EventType) string {
	if t == entities.EventTypeOnboardingCompleted {
		return "Onboarding completed"
	}
	return "Quiz completed"
}

// handlePayment logs payment events
func (d *Dispatcher) handlePayment(event *entities.WebhookEvent, data entities.PaymentData) {
	d.log.Infow(fmt.Sprintf("Processing payment event: %s", event.Type),
		"event_id", event.ID,
		"payment_id", data.PaymentID,
		"amount", data.Amount.String(),
		"currency", data.Currency,
		"customer_email", data.CustomerEmail,
	)

	// data.status repeats the type suffix; the type tag wins when they disagree
	if expected := strings.TrimPrefix(string(event.Type), "payment."); data.Status != "" && string(data.Status) != expected {
		d.log.Warnw("Payment status disagrees with event type",
			"event_id", event.ID,
			"payment_id", data.PaymentID,
			"status", data.Status,
		)
	}

	switch event.Type {
	case entities.EventTypePaymentSucceeded:
		d.log.Infow("Payment succeeded",
			"event_id", event.ID,
			"payment_id", data.PaymentID,
			"amount", data.Amount.String(),
			"product", data.ProductName,
		)

	case entities.EventTypePaymentFailed:
		d.log.Warnw("Payment failed",
			"event_id", event.ID,
			"payment_id", data.PaymentID,
			"customer_email", data.CustomerEmail,
		)

	case entities.EventTypePaymentPending:
		d.log.Infow("Payment pending",
			"event_id", event.ID,
			"payment_id", data.PaymentID,
			"customer_email", data.CustomerEmail,
		)
	}

	d.recorder.RecordPaymentAmount(data.Currency, string(event.Type), data.Amount.InexactFloat64())
}

// handleLead logs lead events
func (d *Dispatcher) handleLead(event *entities.WebhookEvent, data entities.LeadData) {
	d.log.Infow(fmt.Sprintf("Processing lead event: %s", event.Type),
		"event_id", event.ID,
		"lead_id", data.LeadID,
		"email", data.Email,
		"source", data.Source,
	)

	switch event.Type {
	case entities.EventTypeLeadCreated:
		d.log.Infow("New lead created",
			"event_id", event.ID,
			"lead_id", data.LeadID,
			"email", data.Email,
			"name", data.FullName(),
			"tags", data.Tags,
		)

	case entities.EventTypeLeadUpdated:
		d.log.Infow("Lead updated",
			"event_id", event.ID,
			"lead_id", data.LeadID,
			"email", data.Email,
			"updated_at", data.UpdatedAt,
		)
	}
}
