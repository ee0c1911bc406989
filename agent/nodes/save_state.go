package orchestratornode

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

const saveTimeout = 5 * time.Second

// SaveState persists the session even when the turn failed or its deadline
// passed, so finished tool effects are never lost.
func SaveState(ctx context.Context, in *GraphState, store statex.Store, now time.Time) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, errNilGraphState
	}

	in.Saved = true

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	in.Session.Touch(now)
	if err := in.Session.Validate(); err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if err := store.Save(saveCtx, in.Session); err != nil {
		if in.LoopErr != nil {
			log.Error().Err(err).Str("session_id", in.SessionID).Msg("save after failed turn")
			return in, nil
		}
		return nil, fmt.Errorf("save session %s: %w", in.SessionID, err)
	}
	return in, nil
}
