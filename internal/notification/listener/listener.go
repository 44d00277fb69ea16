package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/warestock/order-service/internal/notification"
	"github.com/warestock/order-service/internal/notification/mailer"
	"github.com/warestock/order-service/pkg/logger"
	"go.uber.org/zap"
)

type Consumer interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// EmailListener consumes EmailRequested events and delivers them through
// the mailer. Delivery failures are logged and dropped; the business
// transaction that enqueued the email has already committed.
type EmailListener struct {
	consumer Consumer
	mailer   mailer.Mailer
	logger   logger.ZapLogger
}

func NewEmailListener(consumer Consumer, m mailer.Mailer, log logger.ZapLogger) *EmailListener {
	return &EmailListener{
		consumer: consumer,
		mailer:   m,
		logger:   log,
	}
}

func (l *EmailListener) Start(ctx context.Context) {
	l.logger.Info("Starting Email Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Email Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				// Don't log context canceled error as error
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(msg.Value)
		}
	}
}

func (l *EmailListener) processMessage(value []byte) {
	var event notification.EmailRequestedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "EmailRequested" {
		return
	}

	if err := l.mailer.Send(event.Template, event.Recipient, event.Context); err != nil {
		l.logger.Error("Failed to deliver email",
			zap.String("template", event.Template),
			zap.String("recipient", event.Recipient),
			zap.Error(err),
		)
		return
	}

	l.logger.Info("Email delivered",
		zap.String("template", event.Template),
		zap.String("recipient", event.Recipient),
	)
}
