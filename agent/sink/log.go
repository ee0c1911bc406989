package sink

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Order-Agent/agent/contract"
)

// LogSink records finalized orders in the service log only.
type LogSink struct{}

func (LogSink) Submit(ctx context.Context, order contract.FinalizedOrder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Info().
		Str("order_id", order.OrderID).
		Str("session_id", order.SessionID).
		Str("customer_name", order.Customer.Name).
		Str("customer_email", order.Customer.Email).
		Str("customer_address", order.Customer.Address).
		Str("customer_phone", order.Customer.Phone).
		Interface("items", order.Items).
		Str("total", order.Total.String()).
		Time("submitted_at", order.SubmittedAt).
		Msg("order recorded")
	return nil
}
