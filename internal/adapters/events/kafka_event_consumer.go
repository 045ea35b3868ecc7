package events

import (
	"context"
	"delivery-tracking-service/internal/domain"
	"delivery-tracking-service/internal/platform/obs"
	"delivery-tracking-service/internal/services"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// EventSubmitter is the serialized entry point into the controller (services.Tracker).
type EventSubmitter interface {
	Submit(ctx context.Context, ev domain.DeliveryEvent) (services.Outcome, error)
}

// DeliveryEventMessage is the wire format of a delivery event on the topic.
type DeliveryEventMessage struct {
	ID             string   `json:"id"`
	TimeOfDelivery string   `json:"time_of_delivery"`
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
}

// ToDomain validates the message and converts it.
func (m DeliveryEventMessage) ToDomain() (domain.DeliveryEvent, error) {
	id := strings.TrimSpace(m.ID)
	if id == "" {
		return domain.DeliveryEvent{}, errors.New("delivery event: id is required")
	}
	if m.Lat == nil || m.Lon == nil {
		return domain.DeliveryEvent{}, fmt.Errorf("delivery event %q: lat and lon are required", id)
	}
	at, err := domain.ParseTime(m.TimeOfDelivery)
	if err != nil {
		return domain.DeliveryEvent{}, fmt.Errorf("delivery event %q: %w", id, err)
	}
	return domain.DeliveryEvent{
		ID:             id,
		TimeOfDelivery: at,
		Location:       domain.Location{Lat: *m.Lat, Lon: *m.Lon},
	}, nil
}

// KafkaEventConsumer feeds delivery events from a topic into the tracker, one at a time.
type KafkaEventConsumer struct {
	reader    messageReader
	submitter EventSubmitter
}

func NewKafkaEventConsumer(reader messageReader, submitter EventSubmitter) *KafkaEventConsumer {
	return &KafkaEventConsumer{reader: reader, submitter: submitter}
}

// NewKafkaReader builds a consumer-group reader for the events topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// Run consumes until ctx is canceled (returns nil) or the reader fails.
// Malformed messages are logged and skipped.
func (c *KafkaEventConsumer) Run(ctx context.Context) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("kafka event consumer: read message: %w", err)
		}

		msgCtx := obs.WithRequestID(ctx, string(m.Key))

		var msg DeliveryEventMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			log.Printf("req_id=%s bad delivery event: offset=%d err=%v", obs.RequestID(msgCtx), m.Offset, err)
			continue
		}
		ev, err := msg.ToDomain()
		if err != nil {
			log.Printf("req_id=%s bad delivery event: offset=%d err=%v", obs.RequestID(msgCtx), m.Offset, err)
			continue
		}

		out, err := c.submitter.Submit(msgCtx, ev)
		if errors.Is(err, services.ErrTrackerStopped) {
			return nil
		}
		if err != nil {
			log.Printf("req_id=%s delivery event processed with errors: id=%s err=%v", obs.RequestID(msgCtx), ev.ID, err)
			continue
		}
		log.Printf("req_id=%s delivery event processed: id=%s matched=%t on_time=%t",
			obs.RequestID(msgCtx), ev.ID, out.Matched, out.Delivery.OnTime)
	}
}
