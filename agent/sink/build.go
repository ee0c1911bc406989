package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	configx "github.com/tanpawarit/Chative-Order-Agent/pkg/config"
	qstashx "github.com/tanpawarit/Chative-Order-Agent/pkg/qstash"
	rabbitmqx "github.com/tanpawarit/Chative-Order-Agent/pkg/rabbitmq"
)

const (
	KindLog      = "log"
	KindPostgres = "postgres"
	KindRabbitMQ = "rabbitmq"
	KindQStash   = "qstash"
)

var ErrUnknownSink = errors.New("unknown order sink")

// Build assembles the sinks named in kinds, reading each backend's own
// environment prefix. The returned close func releases every connection.
func Build(ctx context.Context, kinds []string) (contract.OrderSink, func(), error) {
	var (
		sinks   Multi
		closers []func()
		seen    = map[string]bool{}
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	for _, raw := range kinds {
		kind := strings.ToLower(strings.TrimSpace(raw))
		if kind == "" || seen[kind] {
			continue
		}
		seen[kind] = true

		switch kind {
		case KindLog:
			sinks = append(sinks, LogSink{})

		case KindPostgres:
			cfg, err := configx.New[PostgresConfig]("POSTGRES")
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("postgres sink config: %w", err)
			}
			pg := OpenPostgres(*cfg)
			if err := pg.EnsureSchema(ctx); err != nil {
				_ = pg.Close()
				closeAll()
				return nil, nil, err
			}
			closers = append(closers, func() { _ = pg.Close() })
			sinks = append(sinks, pg)

		case KindRabbitMQ:
			cfg, err := configx.New[rabbitmqx.Config]("RABBITMQ")
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("rabbitmq sink config: %w", err)
			}
			client, err := rabbitmqx.Dial(*cfg)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			if err := client.DeclareTopic(cfg.Exchange); err != nil {
				client.Close()
				closeAll()
				return nil, nil, err
			}
			closers = append(closers, client.Close)
			sinks = append(sinks, NewRabbitMQSink(client, cfg.Exchange, cfg.RoutingKey))

		case KindQStash:
			cfg, err := configx.New[qstashx.Config]("QSTASH")
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("qstash sink config: %w", err)
			}
			client, err := qstashx.NewClient(*cfg)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			sinks = append(sinks, NewQStashSink(client, cfg.Destination))

		default:
			closeAll()
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSink, raw)
		}
		log.Info().Str("sink", kind).Msg("order sink enabled")
	}

	if len(sinks) == 0 {
		sinks = Multi{LogSink{}}
	}
	return sinks, closeAll, nil
}
