package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ticketfairy/internal/logger"
	"ticketfairy/internal/models"
)

// Producer streams purchase events to Kafka. In mock mode it only logs the
// payload, which keeps local runs free of a broker dependency.
type Producer struct {
	writer *kafka.Writer
	topic  string
	logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: writer, topic: topic, logger: log}
}

// NewMockProducer returns a producer that logs instead of publishing.
func NewMockProducer(topic string, log *logger.Logger) *Producer {
	return &Producer{topic: topic, logger: log}
}

type ticketPurchasedEvent struct {
	Ticket    models.Ticket `json:"ticket"`
	EventName string        `json:"event_name"`
}

// PublishTicketPurchased streams a committed sale to the purchase topic.
// The sale is already durable; failures here are the caller's to log, not
// to act on.
func (p *Producer) PublishTicketPurchased(ticket models.Ticket, eventName string) error {
	payload := ticketPurchasedEvent{Ticket: ticket, EventName: eventName}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal purchase event: %w", err)
	}

	if p.writer == nil {
		p.logger.LogKafka("MOCK", p.topic, string(value))
		return nil
	}

	err = p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", ticket.EventID)),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("write purchase event: %w", err)
	}

	p.logger.LogKafka("PUBLISH", p.topic, fmt.Sprintf("ticket %d", ticket.ID))
	return nil
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
