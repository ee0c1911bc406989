package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Order-Agent/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Order-Agent/agent/llm"
	"github.com/tanpawarit/Chative-Order-Agent/agent/menu"
	"github.com/tanpawarit/Chative-Order-Agent/agent/prompt"
	"github.com/tanpawarit/Chative-Order-Agent/agent/sink"
	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
	toolx "github.com/tanpawarit/Chative-Order-Agent/agent/tool"
	configx "github.com/tanpawarit/Chative-Order-Agent/pkg/config"
	metricsx "github.com/tanpawarit/Chative-Order-Agent/pkg/metrics"
)

const (
	backendMemory  = "memory"
	backendUpstash = "upstash"
)

// AppConfig is read with the APP prefix.
type AppConfig struct {
	Addr               string        `envconfig:"ADDR" default:":8080"`
	MenuFile           string        `envconfig:"MENU_FILE"`
	PromptFile         string        `envconfig:"PROMPT_FILE"`
	SessionBackend     string        `envconfig:"SESSION_BACKEND" default:"memory"`
	OrderSinks         []string      `envconfig:"ORDER_SINKS" default:"log"`
	MaxToolRounds      int           `envconfig:"MAX_TOOL_ROUNDS" default:"8"`
	TurnTimeout        time.Duration `envconfig:"TURN_TIMEOUT" default:"60s"`
	EnforceOpenHours   bool          `envconfig:"ENFORCE_OPEN_HOURS" default:"false"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	ShutdownTimeout    time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

type app struct {
	cfg          *AppConfig
	orchestrator *orchestrator.Orchestrator
	metrics      *metricsx.Collector
	close        func()
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := configx.New[AppConfig]("APP")
	if err != nil {
		return nil, fmt.Errorf("app config: %w", err)
	}

	m, err := menu.Load(cfg.MenuFile)
	if err != nil {
		return nil, err
	}
	prompts, err := prompt.LoadPromptSetFrom(cfg.PromptFile)
	if err != nil {
		return nil, err
	}

	llmCfg, err := configx.New[llm.Config]("LLM")
	if err != nil {
		return nil, fmt.Errorf("llm config: %w", err)
	}
	oracle, err := llm.New(ctx, *llmCfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(cfg.SessionBackend)
	if err != nil {
		return nil, err
	}

	orders, closeSinks, err := sink.Build(ctx, cfg.OrderSinks)
	if err != nil {
		return nil, err
	}

	executor, err := toolx.NewExecutor(m, orders, toolx.WithEnforcedHours(cfg.EnforceOpenHours))
	if err != nil {
		closeSinks()
		return nil, err
	}

	metrics := metricsx.New()
	orch, err := orchestrator.New(store, oracle, executor, orchestrator.Config{
		SystemPrompt:  prompts.System,
		MaxToolRounds: cfg.MaxToolRounds,
		TurnTimeout:   cfg.TurnTimeout,
	}, orchestrator.WithObserver(metrics))
	if err != nil {
		closeSinks()
		return nil, err
	}

	log.Info().
		Str("session_backend", cfg.SessionBackend).
		Strs("order_sinks", cfg.OrderSinks).
		Str("llm_driver", llmCfg.Driver).
		Str("llm_model", llmCfg.Model).
		Int("menu_items", len(m.Items())).
		Bool("enforce_open_hours", cfg.EnforceOpenHours).
		Msg("order agent ready")

	return &app{cfg: cfg, orchestrator: orch, metrics: metrics, close: closeSinks}, nil
}

func buildStore(backend string) (statex.Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", backendMemory:
		return statex.NewMemoryStore(), nil
	case backendUpstash:
		cfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, fmt.Errorf("upstash config: %w", err)
		}
		return statex.NewUpstashRedisStore(*cfg)
	default:
		return nil, fmt.Errorf("%w: unknown session backend %q", contractx.ErrValidation, backend)
	}
}
