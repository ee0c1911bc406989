package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

type OpenAIOption func(*OpenAIOracle)

func WithMaxTokens(n int) OpenAIOption {
	return func(o *OpenAIOracle) {
		if n > 0 {
			o.maxTokens = int64(n)
		}
	}
}

func WithTemperature(t float32) OpenAIOption {
	return func(o *OpenAIOracle) {
		if t >= 0 {
			o.temperature = float64(t)
			o.hasTemperature = true
		}
	}
}

// OpenAIOracle talks to any OpenAI-compatible chat completions endpoint
// through the official SDK.
type OpenAIOracle struct {
	client         *openai.Client
	model          string
	maxTokens      int64
	temperature    float64
	hasTemperature bool
}

func NewOpenAIOracle(client *openai.Client, model string, opts ...OpenAIOption) *OpenAIOracle {
	o := &OpenAIOracle{client: client, model: strings.TrimSpace(model)}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *OpenAIOracle) Decide(ctx context.Context, req contractx.OracleRequest) (contractx.OracleReply, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: toOpenAIMessages(req.Instructions, req.History),
	}
	if len(req.Tools) > 0 {
		params.Tools = toOpenAITools(req.Tools)
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(o.maxTokens)
	}
	if o.hasTemperature {
		params.Temperature = openai.Float(o.temperature)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return contractx.OracleReply{}, fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return contractx.OracleReply{}, fmt.Errorf("%w: completion has no choices", contractx.ErrSchemaViolation)
	}

	msg := resp.Choices[0].Message
	reply := contractx.OracleReply{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		name := strings.TrimSpace(tc.Function.Name)
		if name == "" {
			return contractx.OracleReply{}, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}
		reply.ToolCalls = append(reply.ToolCalls, statex.ToolCall{
			ID:        tc.ID,
			Name:      name,
			Arguments: tc.Function.Arguments,
		})
	}
	return reply, nil
}

func toOpenAITools(specs []contractx.ToolSpec) []openai.ChatCompletionToolParam {
	tools := make([]openai.ChatCompletionToolParam, 0, len(specs))
	for _, s := range specs {
		props := make(map[string]any, len(s.Params))
		required := make([]string, 0, len(s.Params))
		for _, p := range s.Params {
			props[p.Name] = map[string]any{
				"type":        p.Type,
				"description": p.Desc,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		tools = append(tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        s.Name,
				Description: openai.String(s.Description),
				Parameters: openai.FunctionParameters{
					"type":       "object",
					"properties": props,
					"required":   required,
				},
			},
		})
	}
	return tools
}

func toOpenAIMessages(instructions string, history []statex.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if strings.TrimSpace(instructions) != "" {
		out = append(out, openai.SystemMessage(instructions))
	}
	for _, m := range history {
		switch m.Role {
		case statex.RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case statex.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			asst := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				asst.Content.OfString = openai.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
		case statex.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}
	return out
}
