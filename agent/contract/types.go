package contract

import (
	"errors"
	"fmt"
	"time"

	"github.com/tanpawarit/Chative-Order-Agent/agent/menu"
	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

type OracleRequest struct {
	Instructions string           `json:"instructions"`
	History      []statex.Message `json:"history"`
	Tools        []ToolSpec       `json:"tools"`
}

type OracleReply struct {
	Content   string            `json:"content"`
	ToolCalls []statex.ToolCall `json:"tool_calls,omitempty"`
}

type ParamSpec struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // "string" | "integer"
	Desc     string `json:"desc"`
	Required bool   `json:"required"`
}

type ToolSpec struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ParamSpec `json:"params,omitempty"`
}

type ToolRequest struct {
	CallID    string `json:"call_id"`
	Tool      string `json:"tool"`
	Arguments string `json:"arguments,omitempty"`
}

type ResultKind string

const (
	ResultOK         ResultKind = "ok"
	ResultValidation ResultKind = "validation"
	ResultDomain     ResultKind = "domain"
	ResultFailure    ResultKind = "failure"
)

type ToolResult struct {
	Tool   string     `json:"tool"`
	Kind   ResultKind `json:"kind"`
	Result string     `json:"result,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// Text is what the model sees as the tool message content.
func (r ToolResult) Text() string {
	if r.Error != "" {
		return "Error: " + r.Error
	}
	return r.Result
}

// Err maps a failed result back to its sentinel; nil when the tool succeeded.
func (r ToolResult) Err() error {
	switch r.Kind {
	case ResultValidation:
		return fmt.Errorf("%w: %s", ErrValidation, r.Error)
	case ResultDomain:
		return fmt.Errorf("%w: %s", ErrDomain, r.Error)
	case ResultFailure:
		return errors.New(r.Error)
	default:
		return nil
	}
}

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type FinalizedOrder struct {
	OrderID     string            `json:"order_id"`
	SessionID   string            `json:"session_id"`
	Customer    Customer          `json:"customer"`
	Items       []statex.LineItem `json:"items"`
	Total       menu.Price        `json:"total"`
	SubmittedAt time.Time         `json:"submitted_at"`
}
