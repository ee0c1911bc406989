package llm

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Order-Agent/pkg/openrouter"
)

// New builds the oracle selected by cfg.Driver.
func New(ctx context.Context, cfg Config) (contractx.Oracle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	orCfg := cfg.OpenRouter()
	switch cfg.driver() {
	case DriverOpenAI:
		client := openrouterx.NewClient(orCfg)
		if client == nil {
			return nil, errors.New("llm: openai client not configured")
		}
		return NewOpenAIOracle(client, orCfg.Model, WithMaxTokens(cfg.MaxCompletionToken), WithTemperature(cfg.Temperature)), nil
	default:
		chatModel, err := orCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("llm: %w", err)
		}
		return NewEinoOracle(chatModel), nil
	}
}
