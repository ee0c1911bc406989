package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	openrouterx "github.com/tanpawarit/Chative-Order-Agent/pkg/openrouter"
)

const (
	DriverEino   = "eino"
	DriverOpenAI = "openai"
)

// Config is read with the LLM prefix.
type Config struct {
	Driver             string        `envconfig:"DRIVER" default:"eino"`
	BaseURL            string        `envconfig:"BASE_URL" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" required:"true"`
	Model              string        `envconfig:"MODEL" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" default:"0.3"`
	Timeout            time.Duration `envconfig:"TIMEOUT" default:"30s"`
	MaxRetries         int           `envconfig:"MAX_RETRIES" default:"2"`
	SiteURL            string        `envconfig:"SITE_URL"`
	SiteName           string        `envconfig:"SITE_NAME"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: llm model is required", contractx.ErrValidation)
	}
	switch c.driver() {
	case DriverEino, DriverOpenAI:
		return nil
	default:
		return fmt.Errorf("%w: unknown llm driver %q", contractx.ErrValidation, c.Driver)
	}
}

func (c Config) driver() string {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	if d == "" {
		return DriverEino
	}
	return d
}

func (c Config) OpenRouter() openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(c.Model),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		MaxRetries:         c.MaxRetries,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
