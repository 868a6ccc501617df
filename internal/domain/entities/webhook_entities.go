package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EventType is the FunnelFox webhook event type tag
type EventType string

const (
	EventTypeQuizCompleted EventType = "quiz.completed"
	EventTypeQuizStarted   EventType = "quiz.started"
	EventTypeQuizAbandoned EventType = "quiz.abandoned"

	// Funnel lifecycle labels. They are not routed to a category and are answered as unknown types;
	// the quiz handler still names them in its logs.
	EventTypeOnboardingStarted   EventType = "onboarding.started"
	EventTypeOnboardingCompleted EventType = "onboarding.completed"
	EventTypePurchaseCompleted   EventType = "purchase.completed"

	EventTypePaymentSucceeded EventType = "payment.succeeded"
	EventTypePaymentFailed    EventType = "payment.failed"
	EventTypePaymentPending   EventType = "payment.pending"

	EventTypeLeadCreated EventType = "lead.created"
	EventTypeLeadUpdated EventType = "lead.updated"
)

// EventCategory groups event types that share a payload shape
type EventCategory string

const (
	EventCategoryQuiz         EventCategory = "quiz"
	EventCategoryPayment      EventCategory = "payment"
	EventCategoryLead         EventCategory = "lead"
	EventCategoryUnclassified EventCategory = "unclassified"
)

var eventCategories = map[EventType]EventCategory{
	EventTypeQuizCompleted:    EventCategoryQuiz,
	EventTypeQuizStarted:      EventCategoryQuiz,
	EventTypeQuizAbandoned:    EventCategoryQuiz,
	EventTypePaymentSucceeded: EventCategoryPayment,
	EventTypePaymentFailed:    EventCategoryPayment,
	EventTypePaymentPending:   EventCategoryPayment,
	EventTypeLeadCreated:      EventCategoryLead,
	EventTypeLeadUpdated:      EventCategoryLead,
}

// Category returns the category for the event type, EventCategoryUnclassified when unknown
func (t EventType) Category() EventCategory {
	if c, ok := eventCategories[t]; ok {
		return c
	}
	return EventCategoryUnclassified
}

// Recognized reports whether the type belongs to one of the handled categories
func (t EventType) Recognized() bool {
	return t.Category() != EventCategoryUnclassified
}

// RecognizedEventTypes returns every handled event type
func RecognizedEventTypes() []EventType {
	types := make([]EventType, 0, len(eventCategories))
	for t := range eventCategories {
		types = append(types, t)
	}
	return types
}

// PaymentStatus is the status carried inside a payment payload
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusPending   PaymentStatus = "pending"
)

// EventData is the category-specific payload of a webhook event.
// The set of implementations is closed: QuizData, PaymentData, LeadData and UnclassifiedData.
type EventData interface {
	Category() EventCategory
	isEventData()
}

// WebhookEvent is a decoded FunnelFox webhook notification. It is never mutated after decoding.
type WebhookEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Created   string                 `json:"created"`
	ProjectID string                 `json:"project_id,omitempty"`
	Data      EventData              `json:"-"`
	RawData   json.RawMessage        `json:"data"`
	Profile   map[string]interface{} `json:"profile,omitempty"`
}

// QuizData is the payload of quiz and funnel lifecycle events
type QuizData struct {
	QuizID     string      `json:"quiz_id"`
	UserID     string      `json:"user_id,omitempty"`
	Email      string      `json:"email,omitempty"`
	TotalScore *float64    `json:"total_score,omitempty"`
	Replies    []QuizReply `json:"replies,omitempty"`
}

// QuizReply is a single answered screen
type QuizReply struct {
	Screen   map[string]interface{} `json:"screen,omitempty"`
	Question string                 `json:"question"`
	Answer   Answer                 `json:"answer"`
	Score    *float64               `json:"score,omitempty"`
}

// Answer holds either a single answer or a list of selected answers
type Answer struct {
	Values   []string
	Multiple bool
}

// UnmarshalJSON accepts a scalar, an array of scalars or null.
// Numbers and booleans keep their JSON text.
func (a *Answer) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, jsonNull) {
		*a = Answer{}
		return nil
	}

	if b[0] == '[' {
		var values looseStrings
		_ = json.Unmarshal(b, &values)
		if values == nil {
			values = looseStrings{}
		}
		*a = Answer{Values: values, Multiple: true}
		return nil
	}

	*a = Answer{Values: []string{scalarText(b)}}
	return nil
}

// MarshalJSON writes the answer back in the shape it was received
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Multiple {
		if a.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Values)
	}
	if len(a.Values) == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(a.Values[0])
}

func (a Answer) String() string {
	return strings.Join(a.Values, ", ")
}

// UnmarshalJSON decodes a reply, tolerating wrong types in any field
func (r *QuizReply) UnmarshalJSON(b []byte) error {
	var aux struct {
		Screen   looseObject `json:"screen"`
		Question looseString `json:"question"`
		Answer   Answer      `json:"answer"`
		Score    looseNumber `json:"score"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*r = QuizReply{
		Screen:   aux.Screen,
		Question: string(aux.Question),
		Answer:   aux.Answer,
		Score:    aux.Score.value,
	}
	return nil
}

// UnmarshalJSON resolves the quiz_id/id and replies/answers aliases used by different senders
func (q *QuizData) UnmarshalJSON(b []byte) error {
	var aux struct {
		QuizID     looseString  `json:"quiz_id"`
		ID         looseString  `json:"id"`
		UserID     looseString  `json:"user_id"`
		Email      looseString  `json:"email"`
		TotalScore looseNumber  `json:"total_score"`
		Replies    looseReplies `json:"replies"`
		Answers    looseReplies `json:"answers"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*q = QuizData{
		QuizID:     string(aux.QuizID),
		UserID:     string(aux.UserID),
		Email:      string(aux.Email),
		TotalScore: aux.TotalScore.value,
		Replies:    aux.Replies,
	}
	if q.QuizID == "" {
		q.QuizID = string(aux.ID)
	}
	if q.Replies == nil {
		q.Replies = aux.Answers
	}
	return nil
}

func (QuizData) Category() EventCategory { return EventCategoryQuiz }
func (QuizData) isEventData()            {}

// PaymentData is the payload of payment events
type PaymentData struct {
	PaymentID     string                 `json:"payment_id"`
	Amount        decimal.Decimal        `json:"amount"`
	Currency      string                 `json:"currency"`
	CustomerEmail string                 `json:"customer_email"`
	CustomerID    string                 `json:"customer_id,omitempty"`
	ProductID     string                 `json:"product_id,omitempty"`
	ProductName   string                 `json:"product_name,omitempty"`
	Status        PaymentStatus          `json:"status"`
	PaymentMethod string                 `json:"payment_method,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// UnmarshalJSON decodes a payment payload, tolerating wrong types in any field
func (p *PaymentData) UnmarshalJSON(b []byte) error {
	var aux struct {
		PaymentID     looseString  `json:"payment_id"`
		Amount        looseDecimal `json:"amount"`
		Currency      looseString  `json:"currency"`
		CustomerEmail looseString  `json:"customer_email"`
		CustomerID    looseString  `json:"customer_id"`
		ProductID     looseString  `json:"product_id"`
		ProductName   looseString  `json:"product_name"`
		Status        looseString  `json:"status"`
		PaymentMethod looseString  `json:"payment_method"`
		Metadata      looseObject  `json:"metadata"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*p = PaymentData{
		PaymentID:     string(aux.PaymentID),
		Amount:        aux.Amount.value,
		Currency:      string(aux.Currency),
		CustomerEmail: string(aux.CustomerEmail),
		CustomerID:    string(aux.CustomerID),
		ProductID:     string(aux.ProductID),
		ProductName:   string(aux.ProductName),
		Status:        PaymentStatus(aux.Status),
		PaymentMethod: string(aux.PaymentMethod),
		Metadata:      aux.Metadata,
	}
	return nil
}

func (PaymentData) Category() EventCategory { return EventCategoryPayment }
func (PaymentData) isEventData()            {}

// LeadData is the payload of lead events
type LeadData struct {
	LeadID       string                 `json:"lead_id"`
	Email        string                 `json:"email"`
	FirstName    string                 `json:"first_name,omitempty"`
	LastName     string                 `json:"last_name,omitempty"`
	Phone        string                 `json:"phone,omitempty"`
	Source       string                 `json:"source,omitempty"`
	Tags         []string               `json:"tags,omitempty"`
	CustomFields map[string]interface{} `json:"custom_fields,omitempty"`
	CreatedAt    string                 `json:"created_at"`
	UpdatedAt    string                 `json:"updated_at,omitempty"`
}

// FullName joins first and last name, skipping empty parts
func (l LeadData) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// UnmarshalJSON decodes a lead payload, tolerating wrong types in any field
func (l *LeadData) UnmarshalJSON(b []byte) error {
	var aux struct {
		LeadID       looseString  `json:"lead_id"`
		Email        looseString  `json:"email"`
		FirstName    looseString  `json:"first_name"`
		LastName     looseString  `json:"last_name"`
		Phone        looseString  `json:"phone"`
		Source       looseString  `json:"source"`
		Tags         looseStrings `json:"tags"`
		CustomFields looseObject  `json:"custom_fields"`
		CreatedAt    looseString  `json:"created_at"`
		UpdatedAt    looseString  `json:"updated_at"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*l = LeadData{
		LeadID:       string(aux.LeadID),
		Email:        string(aux.Email),
		FirstName:    string(aux.FirstName),
		LastName:     string(aux.LastName),
		Phone:        string(aux.Phone),
		Source:       string(aux.Source),
		Tags:         aux.Tags,
		CustomFields: aux.CustomFields,
		CreatedAt:    string(aux.CreatedAt),
		UpdatedAt:    string(aux.UpdatedAt),
	}
	return nil
}

func (LeadData) Category() EventCategory { return EventCategoryLead }
func (LeadData) isEventData()            {}

// UnclassifiedData keeps the payload of event types the service does not handle
type UnclassifiedData struct {
	Raw json.RawMessage
}

func (UnclassifiedData) Category() EventCategory { return EventCategoryUnclassified }
func (UnclassifiedData) isEventData()            {}

// DecodeWebhookEvent parses a webhook body, checks the required envelope fields and
// decodes data into the variant selected by the event type.
func DecodeWebhookEvent(body []byte) (*WebhookEvent, error) {
	var envelope struct {
		ID        *string         `json:"id"`
		Type      *string         `json:"type"`
		Created   *string         `json:"created"`
		ProjectID looseString     `json:"project_id"`
		Data      json.RawMessage `json:"data"`
		Profile   looseObject     `json:"profile"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("malformed JSON body: %w", err)
	}

	switch {
	case envelope.ID == nil:
		return nil, fmt.Errorf("field %q is required", "id")
	case envelope.Type == nil:
		return nil, fmt.Errorf("field %q is required", "type")
	case envelope.Created == nil:
		return nil, fmt.Errorf("field %q is required", "created")
	}

	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("field %q is required", "data")
	}
	if data[0] != '{' {
		return nil, fmt.Errorf("field %q must be an object", "data")
	}

	event := &WebhookEvent{
		ID:        *envelope.ID,
		Type:      EventType(*envelope.Type),
		Created:   *envelope.Created,
		ProjectID: string(envelope.ProjectID),
		RawData:   data,
		Profile:   envelope.Profile,
	}

	payload, err := decodeEventData(event.Type.Category(), data)
	if err != nil {
		return nil, fmt.Errorf("data for %s event: %w", event.Type, err)
	}
	event.Data = payload

	return event, nil
}

func decodeEventData(category EventCategory, data json.RawMessage) (EventData, error) {
	switch category {
	case EventCategoryQuiz:
		var quiz QuizData
		if err := json.Unmarshal(data, &quiz); err != nil {
			return nil, err
		}
		return quiz, nil
	case EventCategoryPayment:
		var payment PaymentData
		if err := json.Unmarshal(data, &payment); err != nil {
			return nil, err
		}
		return payment, nil
	case EventCategoryLead:
		var lead LeadData
		if err := json.Unmarshal(data, &lead); err != nil {
			return nil, err
		}
		return lead, nil
	default:
		return UnclassifiedData{Raw: data}, nil
	}
}

// WebhookResponse is the acknowledgement returned to the webhook sender
type WebhookResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// TestWebhookResponse is returned by the development echo endpoint
type TestWebhookResponse struct {
	WebhookResponse
	ReceivedData json.RawMessage `json:"receivedData"`
}

// ISOTimestampLayout renders UTC times as 2006-01-02T15:04:05.000Z
const ISOTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// NewWebhookResponse builds a response stamped with now
func NewWebhookResponse(success bool, message string, now time.Time) WebhookResponse {
	return WebhookResponse{
		Success:   success,
		Message:   message,
		Timestamp: now.UTC().Format(ISOTimestampLayout),
	}
}
