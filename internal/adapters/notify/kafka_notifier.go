package notify

import (
	"context"
	"delivery-tracking-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type notificationPayload struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// KafkaNotifier publishes notifications to a topic for a downstream mailer.
type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaNotifier(writer messageWriter) (*KafkaNotifier, error) {
	if writer == nil {
		return nil, errors.New("kafka notifier: writer is nil")
	}
	return &KafkaNotifier{writer: writer, now: time.Now}, nil
}

// NewKafkaWriter builds a producer for the notifications topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
}

func (n *KafkaNotifier) Send(ctx context.Context, recipient, subject, body string) (err error) {
	defer obs.Time(ctx, "kafka.notify.Send")(&err)

	payload, err := json.Marshal(notificationPayload{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		SentAt:    n.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("kafka notify: marshal payload: %w", err)
	}

	// Keyed by recipient so one customer's messages stay ordered.
	if err := n.writer.WriteMessages(ctx, kafka.Message{Key: []byte(recipient), Value: payload}); err != nil {
		return fmt.Errorf("kafka notify: write message for %q: %w", recipient, err)
	}
	return nil
}
