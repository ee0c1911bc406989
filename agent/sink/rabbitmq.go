package sink

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tanpawarit/Chative-Order-Agent/agent/contract"
)

// Publisher is the part of pkg/rabbitmq.Client the sink needs.
type Publisher interface {
	Publish(ctx context.Context, exchange, key string, body []byte, headers amqp.Table) error
}

// RabbitMQSink publishes each order as JSON for downstream kitchen and
// notification consumers.
type RabbitMQSink struct {
	pub        Publisher
	exchange   string
	routingKey string
}

func NewRabbitMQSink(pub Publisher, exchange, routingKey string) *RabbitMQSink {
	return &RabbitMQSink{pub: pub, exchange: exchange, routingKey: routingKey}
}

func (s *RabbitMQSink) Submit(ctx context.Context, order contract.FinalizedOrder) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	headers := amqp.Table{
		"order_id":   order.OrderID,
		"session_id": order.SessionID,
	}
	if err := s.pub.Publish(ctx, s.exchange, s.routingKey, body, headers); err != nil {
		return fmt.Errorf("publish order %s: %w", order.OrderID, err)
	}
	return nil
}
