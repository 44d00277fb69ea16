package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Template selectors understood by the listener.
const (
	TemplateVerification         = "verification"
	TemplateOrderConfirmation    = "order_confirmation"
	TemplateVerificationReminder = "verification_reminder"
)

// Dispatcher enqueues a transactional email. Callers treat dispatch as
// best-effort: a returned error must never roll back the business
// transaction that triggered it.
type Dispatcher interface {
	Send(ctx context.Context, template, recipient string, templateCtx map[string]string) error
}

// EmailRequestedEvent is the envelope published to the email topic.
type EmailRequestedEvent struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Template  string            `json:"template"`
	Recipient string            `json:"recipient"`
	Context   map[string]string `json:"context"`
	Timestamp time.Time         `json:"timestamp"`
}

type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
}

type kafkaDispatcher struct {
	producer Producer
}

func NewKafkaDispatcher(producer Producer) Dispatcher {
	return &kafkaDispatcher{producer: producer}
}

func (d *kafkaDispatcher) Send(ctx context.Context, template, recipient string, templateCtx map[string]string) error {
	event := EmailRequestedEvent{
		EventID:   uuid.New().String(),
		EventType: "EmailRequested",
		Template:  template,
		Recipient: recipient,
		Context:   templateCtx,
		Timestamp: time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return d.producer.Publish(ctx, []byte(recipient), value)
}
