package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Order-Agent/agent/prompt"
	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

const DefaultMaxToolRounds = 8

type LoopDeps struct {
	Oracle     contractx.Oracle
	Tools      contractx.ToolGateway
	Observer   contractx.TurnObserver
	BasePrompt string
	MaxRounds  int
	Now        func() time.Time
	NewCallID  func() string
}

// RunToolLoop alternates oracle rounds and tool execution until the oracle
// answers in plain text. Failures land in in.LoopErr so completed rounds are
// still persisted.
func RunToolLoop(ctx context.Context, in *GraphState, deps LoopDeps) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, errNilGraphState
	}
	deps = deps.withDefaults()
	sess := in.Session
	specs := deps.Tools.Specs()

	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			in.LoopErr = contextErr(err)
			return in, nil
		}

		reply, err := deps.Oracle.Decide(ctx, contractx.OracleRequest{
			Instructions: prompt.BuildInstructions(deps.BasePrompt, &sess.Cart),
			History:      sess.History,
			Tools:        specs,
		})
		in.Rounds = round + 1
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				in.LoopErr = contextErr(ctxErr)
			} else if !errors.Is(err, contractx.ErrModelInvoke) && !errors.Is(err, contractx.ErrSchemaViolation) {
				in.LoopErr = fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
			} else {
				in.LoopErr = err
			}
			return in, nil
		}

		calls := normalizeCalls(reply.ToolCalls, deps.NewCallID)
		if len(calls) == 0 {
			sess.Append(statex.AssistantMessage(reply.Content, nil, deps.Now()))
			return in, nil
		}
		if round >= deps.MaxRounds {
			in.LoopErr = fmt.Errorf("%w: %d rounds", contractx.ErrToolLoopExceeded, deps.MaxRounds)
			return in, nil
		}

		toolMsgs := make([]statex.Message, 0, len(calls))
		for _, call := range calls {
			res := deps.Tools.Execute(ctx, sess, contractx.ToolRequest{
				CallID:    call.ID,
				Tool:      call.Name,
				Arguments: call.Arguments,
			})
			deps.Observer.ObserveToolCall(call.Name, res.Kind)
			ev := log.Debug()
			if err := res.Err(); err != nil {
				ev = log.Warn().Err(err)
			}
			ev.Str("session_id", sess.SessionID).
				Int("round", round).
				Str("tool", call.Name).
				Str("kind", string(res.Kind)).
				Msg("tool executed")
			toolMsgs = append(toolMsgs, statex.ToolMessage(call.ID, call.Name, res.Text(), deps.Now()))
		}

		// The assistant request and its results land together so history never
		// holds an unanswered tool call.
		sess.Append(statex.AssistantMessage(reply.Content, calls, deps.Now()))
		sess.Append(toolMsgs...)
	}
}

func (d LoopDeps) withDefaults() LoopDeps {
	if d.MaxRounds <= 0 {
		d.MaxRounds = DefaultMaxToolRounds
	}
	if d.Observer == nil {
		d.Observer = contractx.NoopObserver{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewCallID == nil {
		d.NewCallID = func() string { return "call_" + uuid.NewString() }
	}
	return d
}

// normalizeCalls assigns missing ids and drops repeated ones.
func normalizeCalls(calls []statex.ToolCall, newID func() string) []statex.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(calls))
	out := make([]statex.ToolCall, 0, len(calls))
	for _, c := range calls {
		if c.ID == "" {
			c.ID = newID()
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

func contextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", contractx.ErrTurnTimeout, err)
	}
	return err
}
