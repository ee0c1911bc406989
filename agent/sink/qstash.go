package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	qstashx "github.com/tanpawarit/Chative-Order-Agent/pkg/qstash"
)

type QStashPublisher interface {
	Publish(ctx context.Context, destination string, body []byte, dedupID string) (qstashx.PublishResponse, error)
}

// QStashSink forwards orders to a webhook through QStash. The order id is
// the deduplication id, so a retried submit is delivered once.
type QStashSink struct {
	client      QStashPublisher
	destination string
}

func NewQStashSink(client QStashPublisher, destination string) *QStashSink {
	return &QStashSink{client: client, destination: destination}
}

func (s *QStashSink) Submit(ctx context.Context, order contract.FinalizedOrder) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	resp, err := s.client.Publish(ctx, s.destination, body, order.OrderID)
	if err != nil {
		return err
	}
	log.Debug().Str("order_id", order.OrderID).Str("message_id", resp.MessageID).Msg("order webhook queued")
	return nil
}
