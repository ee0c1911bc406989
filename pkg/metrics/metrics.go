package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	toolx "github.com/tanpawarit/Chative-Order-Agent/agent/tool"
)

// Collector records turn and tool metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	turnDuration    *prometheus.HistogramVec
	oracleRounds    prometheus.Histogram
	toolCalls       *prometheus.CounterVec
	ordersFinalized prometheus.Counter
}

var _ contract.TurnObserver = (*Collector)(nil)

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "order_agent_turn_duration_seconds",
				Help:    "Wall time of one customer turn",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 9),
			},
			[]string{"outcome"},
		),
		oracleRounds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "order_agent_oracle_rounds",
			Help:    "Tool rounds taken before the final reply",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		}),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_agent_tool_calls_total",
				Help: "Tool calls executed, by tool and result kind",
			},
			[]string{"tool", "outcome"},
		),
		ordersFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "order_agent_orders_finalized_total",
			Help: "Orders successfully finalized",
		}),
	}

	c.registry.MustRegister(
		c.turnDuration,
		c.oracleRounds,
		c.toolCalls,
		c.ordersFinalized,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) ObserveTurn(outcome string, rounds int, elapsed time.Duration) {
	c.turnDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	c.oracleRounds.Observe(float64(rounds))
}

func (c *Collector) ObserveToolCall(tool string, kind contract.ResultKind) {
	c.toolCalls.WithLabelValues(tool, string(kind)).Inc()
	if tool == toolx.ToolFinalizeOrder && kind == contract.ResultOK {
		c.ordersFinalized.Inc()
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
