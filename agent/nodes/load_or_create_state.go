package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

// LoadOrCreateState attaches the session (new on first contact) and records
// the user message.
func LoadOrCreateState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, errNilGraphState
	}

	sess, err := store.Load(ctx, in.SessionID)
	switch {
	case err == nil:
	case errors.Is(err, statex.ErrStateNotFound):
		sess = statex.NewSession(in.SessionID, in.Now)
	default:
		return nil, fmt.Errorf("load session %s: %w", in.SessionID, err)
	}

	in.Session = sess
	in.NBefore = len(sess.History)
	sess.Append(statex.UserMessage(in.Text, in.Now))
	return in, nil
}
