package contract

import (
	"context"
	"time"

	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

// Oracle is the language model: given instructions, history and the tool
// catalogue it returns either plain text or tool calls.
type Oracle interface {
	Decide(ctx context.Context, req OracleRequest) (OracleReply, error)
}

// ToolGateway executes one tool call against a session. Failures are
// reported in the result, never as a Go error.
type ToolGateway interface {
	Specs() []ToolSpec
	Execute(ctx context.Context, sess *statex.Session, req ToolRequest) ToolResult
}

type OrderSink interface {
	Submit(ctx context.Context, order FinalizedOrder) error
}

type TurnObserver interface {
	ObserveTurn(outcome string, rounds int, elapsed time.Duration)
	ObserveToolCall(tool string, kind ResultKind)
}

type NoopObserver struct{}

func (NoopObserver) ObserveTurn(string, int, time.Duration) {}
func (NoopObserver) ObserveToolCall(string, ResultKind)     {}
