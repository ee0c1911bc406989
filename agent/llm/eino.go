package llm

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

// EinoOracle drives an eino tool-calling chat model.
type EinoOracle struct {
	model einomodel.ToolCallingChatModel
}

func NewEinoOracle(m einomodel.ToolCallingChatModel) *EinoOracle {
	return &EinoOracle{model: m}
}

func (o *EinoOracle) Decide(ctx context.Context, req contractx.OracleRequest) (contractx.OracleReply, error) {
	m := o.model
	if len(req.Tools) > 0 {
		bound, err := o.model.WithTools(toToolInfos(req.Tools))
		if err != nil {
			return contractx.OracleReply{}, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
		}
		m = bound
	}

	msg, err := m.Generate(ctx, toSchemaMessages(req.Instructions, req.History))
	if err != nil {
		return contractx.OracleReply{}, fmt.Errorf("%w: generate: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.OracleReply{}, fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}

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

func toToolInfos(specs []contractx.ToolSpec) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(specs))
	for _, s := range specs {
		params := make(map[string]*schema.ParameterInfo, len(s.Params))
		for _, p := range s.Params {
			params[p.Name] = &schema.ParameterInfo{
				Type:     dataType(p.Type),
				Desc:     p.Desc,
				Required: p.Required,
			}
		}
		infos = append(infos, &schema.ToolInfo{
			Name:        s.Name,
			Desc:        s.Description,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		})
	}
	return infos
}

func dataType(t string) schema.DataType {
	switch t {
	case "integer":
		return schema.Integer
	case "number":
		return schema.Number
	case "boolean":
		return schema.Boolean
	default:
		return schema.String
	}
}

func toSchemaMessages(instructions string, history []statex.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(history)+1)
	if strings.TrimSpace(instructions) != "" {
		out = append(out, schema.SystemMessage(instructions))
	}
	for _, m := range history {
		switch m.Role {
		case statex.RoleUser:
			out = append(out, schema.UserMessage(m.Content))
		case statex.RoleAssistant:
			var calls []schema.ToolCall
			for _, tc := range m.ToolCalls {
				calls = append(calls, schema.ToolCall{
					ID:       tc.ID,
					Type:     "function",
					Function: schema.FunctionCall{Name: tc.Name, Arguments: tc.Arguments},
				})
			}
			out = append(out, schema.AssistantMessage(m.Content, calls))
		case statex.RoleTool:
			tm := schema.ToolMessage(m.Content, m.ToolCallID)
			tm.ToolName = m.ToolName
			out = append(out, tm)
		}
	}
	return out
}
