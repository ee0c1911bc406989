package orchestratornode

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

var (
	ErrInvalidMessage = fmt.Errorf("%w: message is empty", contractx.ErrValidation)
	ErrInvalidSession = fmt.Errorf("%w: session id is empty", contractx.ErrValidation)
	errNilGraphState  = errors.New("graph state is nil")
)

type GraphInput struct {
	SessionID string
	Text      string
	// State, when set, is filled in place so the caller can still reach the
	// session after the graph stops early.
	State *GraphState
}

type GraphOutput struct {
	Reply  string
	Rounds int
}

type GraphState struct {
	SessionID string
	Text      string
	Now       time.Time

	Session *statex.Session
	// NBefore is the history length before this turn's user message.
	NBefore int
	Rounds  int
	// LoopErr aborts the turn after the state has been saved.
	LoopErr error
	Saved   bool

	Reply string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	st := in.State
	if st == nil {
		st = &GraphState{}
	}
	st.SessionID = sessionID
	st.Text = text
	st.Now = nowFn().UTC()
	return st, nil
}
