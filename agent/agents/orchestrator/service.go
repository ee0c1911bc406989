package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	nodex "github.com/tanpawarit/Chative-Order-Agent/agent/nodes"
	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

const DefaultTurnTimeout = 60 * time.Second

type Config struct {
	SystemPrompt  string
	MaxToolRounds int
	TurnTimeout   time.Duration
}

type Option func(*Orchestrator)

func WithObserver(obs contractx.TurnObserver) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLocker(l *statex.Locker) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.locker = l
		}
	}
}

// Orchestrator runs one turn per HandleMessage call. Turns on the same
// session are serialized; different sessions run in parallel.
type Orchestrator struct {
	store    statex.Store
	oracle   contractx.Oracle
	tools    contractx.ToolGateway
	observer contractx.TurnObserver
	locker   *statex.Locker

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
	loopDeps    nodex.LoopDeps

	turnTimeout time.Duration
	now         func() time.Time
}

func New(
	store statex.Store,
	oracle contractx.Oracle,
	tools contractx.ToolGateway,
	cfg Config,
	opts ...Option,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if oracle == nil {
		return nil, errors.New("oracle is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	systemPrompt := strings.TrimSpace(cfg.SystemPrompt)
	if systemPrompt == "" {
		return nil, fmt.Errorf("%w: system", contractx.ErrPromptMissing)
	}

	o := &Orchestrator{
		store:       store,
		oracle:      oracle,
		tools:       tools,
		observer:    contractx.NoopObserver{},
		locker:      statex.NewLocker(),
		turnTimeout: cfg.TurnTimeout,
		now:         time.Now,
	}
	if o.turnTimeout <= 0 {
		o.turnTimeout = DefaultTurnTimeout
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	o.loopDeps = nodex.LoopDeps{
		Oracle:     oracle,
		Tools:      tools,
		Observer:   o.observer,
		BasePrompt: systemPrompt,
		MaxRounds:  cfg.MaxToolRounds,
		Now:        o.now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (string, error) {
	start := time.Now()
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrInvalidSession
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrInvalidMessage
	}

	ctx, cancel := context.WithTimeout(ctx, o.turnTimeout)
	defer cancel()

	unlock, err := o.locker.Lock(ctx, sessionID)
	if err != nil {
		err = fmt.Errorf("%w: %s: %v", contractx.ErrSessionBusy, sessionID, err)
		o.observe(sessionID, 0, start, err)
		return "", err
	}
	defer unlock()

	st := &nodex.GraphState{}
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
		State:     st,
	})
	if err != nil {
		o.saveAbandoned(ctx, st)
		if st.LoopErr != nil && !errors.Is(err, st.LoopErr) {
			err = st.LoopErr
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, contractx.ErrTurnTimeout) {
			err = fmt.Errorf("%w: %v", contractx.ErrTurnTimeout, err)
		}
	}
	o.observe(sessionID, st.Rounds, start, err)
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

// saveAbandoned persists a turn the graph stopped before its save step, which
// happens when the turn context ends between nodes.
func (o *Orchestrator) saveAbandoned(ctx context.Context, st *nodex.GraphState) {
	if st.Session == nil || st.Saved {
		return
	}
	if _, err := nodex.SaveState(ctx, st, o.store, o.now()); err != nil {
		log.Error().Err(err).Str("session_id", st.SessionID).Msg("save abandoned turn")
	}
}

func (o *Orchestrator) observe(sessionID string, rounds int, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := outcomeOf(err)
	o.observer.ObserveTurn(outcome, rounds, elapsed)

	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("session_id", sessionID).
		Str("outcome", outcome).
		Int("rounds", rounds).
		Dur("elapsed", elapsed).
		Msg("turn handled")
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, contractx.ErrTurnTimeout):
		return "timeout"
	case errors.Is(err, contractx.ErrToolLoopExceeded):
		return "loop_exceeded"
	case errors.Is(err, contractx.ErrSessionBusy):
		return "busy"
	case errors.Is(err, contractx.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
