package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Order-Agent/agent/menu"
	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
	"github.com/tanpawarit/Chative-Order-Agent/agent/tool"
)

var openAt = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

// scriptedOracle replays replies in order, per session.
type scriptedOracle struct {
	mu       sync.Mutex
	scripts  map[string][]contractx.OracleReply
	requests []contractx.OracleRequest
}

func newScriptedOracle() *scriptedOracle {
	return &scriptedOracle{scripts: make(map[string][]contractx.OracleReply)}
}

func (o *scriptedOracle) push(session string, replies ...contractx.OracleReply) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scripts[session] = append(o.scripts[session], replies...)
}

// The session is recovered from the first user message, which tests prefix
// with "<session>:".
func (o *scriptedOracle) Decide(ctx context.Context, req contractx.OracleRequest) (contractx.OracleReply, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, req)
	session := ""
	for _, m := range req.History {
		if m.Role == statex.RoleUser {
			session, _, _ = strings.Cut(m.Content, ":")
			break
		}
	}
	script := o.scripts[session]
	if len(script) == 0 {
		return contractx.OracleReply{}, fmt.Errorf("%w: script for %q exhausted", contractx.ErrModelInvoke, session)
	}
	o.scripts[session] = script[1:]
	return script[0], nil
}

type oracleFunc func(ctx context.Context, req contractx.OracleRequest) (contractx.OracleReply, error)

func (f oracleFunc) Decide(ctx context.Context, req contractx.OracleRequest) (contractx.OracleReply, error) {
	return f(ctx, req)
}

type fakeSink struct {
	mu     sync.Mutex
	orders []contractx.FinalizedOrder
}

func (s *fakeSink) Submit(_ context.Context, order contractx.FinalizedOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, order)
	return nil
}

type fakeObserver struct {
	mu       sync.Mutex
	outcomes []string
	rounds   []int
	tools    []string
}

func (f *fakeObserver) ObserveTurn(outcome string, rounds int, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, outcome)
	f.rounds = append(f.rounds, rounds)
}

func (f *fakeObserver) ObserveToolCall(name string, kind contractx.ResultKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tools = append(f.tools, name+":"+string(kind))
}

type harness struct {
	orch  *Orchestrator
	store *statex.MemoryStore
	sink  *fakeSink
	obs   *fakeObserver
}

func newHarness(t *testing.T, oracle contractx.Oracle, cfg Config) *harness {
	t.Helper()
	sink := &fakeSink{}
	exec, err := tool.NewExecutor(menu.MustDefault(), sink,
		tool.WithClock(func() time.Time { return openAt }),
		tool.WithOrderIDs(func() string { return "ORD42" }),
	)
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = "You take orders."
	}
	store := statex.NewMemoryStore()
	obs := &fakeObserver{}
	orch, err := New(store, oracle, exec, cfg,
		WithObserver(obs),
		WithClock(func() time.Time { return openAt }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &harness{orch: orch, store: store, sink: sink, obs: obs}
}

func call(id, name, args string) statex.ToolCall {
	return statex.ToolCall{ID: id, Name: name, Arguments: args}
}

func TestHandleMessageOrderFlow(t *testing.T) {
	t.Parallel()

	oracle := newScriptedOracle()
	h := newHarness(t, oracle, Config{})
	ctx := context.Background()

	oracle.push("s1",
		contractx.OracleReply{ToolCalls: []statex.ToolCall{call("c1", tool.ToolCheckCurrentTime, "{}")}},
		contractx.OracleReply{ToolCalls: []statex.ToolCall{call("c2", tool.ToolGetMenuInfo, `{"query":"all"}`)}},
		contractx.OracleReply{Content: "Here is our menu."},
	)
	reply, err := h.orch.HandleMessage(ctx, "s1", "s1: what do you have?")
	if err != nil {
		t.Fatalf("turn 1 error = %v", err)
	}
	if reply != "Here is our menu." {
		t.Fatalf("turn 1 reply = %q", reply)
	}

	oracle.push("s1",
		contractx.OracleReply{ToolCalls: []statex.ToolCall{call("c3", tool.ToolAddToOrder, `{"item_name":"Shawarma","quantity":2}`)}},
		contractx.OracleReply{Content: "Added two shawarma."},
	)
	if _, err := h.orch.HandleMessage(ctx, "s1", "two shawarma"); err != nil {
		t.Fatalf("turn 2 error = %v", err)
	}

	// Blank final text falls back to the newest tool output.
	oracle.push("s1",
		contractx.OracleReply{ToolCalls: []statex.ToolCall{call("c4", tool.ToolGetCurrentOrderSummary, "")}},
		contractx.OracleReply{Content: "  "},
	)
	reply, err = h.orch.HandleMessage(ctx, "s1", "what's my total?")
	if err != nil {
		t.Fatalf("turn 3 error = %v", err)
	}
	if reply != "Cart summary:\n2x Shawarma ($24.00)\n\nTotal: $24.00" {
		t.Fatalf("turn 3 reply = %q", reply)
	}

	oracle.push("s1",
		contractx.OracleReply{ToolCalls: []statex.ToolCall{call("c5", tool.ToolFinalizeOrder,
			`{"customer_name":"Ana Diaz","email":"ana@example.com","address":"Main St 1","phone":"555-0100"}`)}},
		contractx.OracleReply{Content: "Your order ORD42 is confirmed!"},
	)
	reply, err = h.orch.HandleMessage(ctx, "s1", "yes, confirm")
	if err != nil {
		t.Fatalf("turn 4 error = %v", err)
	}
	if reply != "Your order ORD42 is confirmed!" {
		t.Fatalf("turn 4 reply = %q", reply)
	}

	if len(h.sink.orders) != 1 || h.sink.orders[0].Total != 2400 {
		t.Fatalf("orders = %+v", h.sink.orders)
	}
	sess, err := h.store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !sess.Cart.IsEmpty() {
		t.Fatalf("cart after finalize = %+v", sess.Cart.Items)
	}
	// 4 turns: user + assistant each, plus 5 tool exchanges of 2 messages.
	if len(sess.History) != 4*2+5*2 {
		t.Fatalf("history len = %d", len(sess.History))
	}

	// Instructions mention the cart only while it is non-empty.
	last := oracle.requests[len(oracle.requests)-2]
	if !strings.Contains(last.Instructions, "2 items in the cart") {
		t.Fatalf("instructions before finalize = %q", last.Instructions)
	}
	final := oracle.requests[len(oracle.requests)-1]
	if strings.Contains(final.Instructions, "in the cart") {
		t.Fatalf("instructions after finalize = %q", final.Instructions)
	}
	if h.obs.outcomes[len(h.obs.outcomes)-1] != "ok" {
		t.Fatalf("outcomes = %v", h.obs.outcomes)
	}
}

func TestHandleMessageToolLoopBound(t *testing.T) {
	t.Parallel()

	looping := oracleFunc(func(ctx context.Context, req contractx.OracleRequest) (contractx.OracleReply, error) {
		return contractx.OracleReply{ToolCalls: []statex.ToolCall{call("", tool.ToolCheckStoreHours, "")}}, nil
	})
	h := newHarness(t, looping, Config{MaxToolRounds: 2})

	_, err := h.orch.HandleMessage(context.Background(), "s1", "hours?")
	if !errors.Is(err, contractx.ErrToolLoopExceeded) {
		t.Fatalf("HandleMessage() error = %v, want ErrToolLoopExceeded", err)
	}
	if !contractx.IsOrchestrationError(err) {
		t.Fatal("loop overflow must be an orchestration error")
	}

	sess, err := h.store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// user + 2 completed tool rounds of 2 messages each.
	if len(sess.History) != 5 {
		t.Fatalf("persisted history len = %d, want 5", len(sess.History))
	}
	if h.obs.outcomes[0] != "loop_exceeded" {
		t.Fatalf("outcomes = %v", h.obs.outcomes)
	}
	// Two executed rounds plus the refused third.
	if h.obs.rounds[0] != 3 {
		t.Fatalf("observed rounds = %v, want [3]", h.obs.rounds)
	}
}

func TestHandleMessageSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	oracle := newScriptedOracle()
	h := newHarness(t, oracle, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		session := fmt.Sprintf("s%d", i)
		oracle.push(session,
			contractx.OracleReply{ToolCalls: []statex.ToolCall{call("a", tool.ToolAddToOrder, fmt.Sprintf(`{"item_name":"Soda","quantity":%d}`, i+1))}},
			contractx.OracleReply{Content: "ok"},
		)
		wg.Add(1)
		go func(session string) {
			defer wg.Done()
			if _, err := h.orch.HandleMessage(context.Background(), session, session+": sodas"); err != nil {
				t.Errorf("HandleMessage(%s) error = %v", session, err)
			}
		}(session)
	}
	wg.Wait()

	for i := 0; i < 6; i++ {
		sess, err := h.store.Load(context.Background(), fmt.Sprintf("s%d", i))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if sess.Cart.ItemCount() != i+1 || len(sess.Cart.Items) != 1 {
			t.Fatalf("session s%d cart = %+v", i, sess.Cart.Items)
		}
	}
}

func TestHandleMessageSerializesSameSession(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	inside, maxInside := 0, 0
	slow := oracleFunc(func(ctx context.Context, req contractx.OracleRequest) (contractx.OracleReply, error) {
		mu.Lock()
		inside++
		if inside > maxInside {
			maxInside = inside
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inside--
		mu.Unlock()
		return contractx.OracleReply{Content: "ok"}, nil
	})
	h := newHarness(t, slow, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := h.orch.HandleMessage(context.Background(), "shared", fmt.Sprintf("msg %d", i)); err != nil {
				t.Errorf("HandleMessage() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("max concurrent turns on one session = %d, want 1", maxInside)
	}
	sess, err := h.store.Load(context.Background(), "shared")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(sess.History) != 10 {
		t.Fatalf("history len = %d, want 10 (no lost updates)", len(sess.History))
	}
}

func TestHandleMessageInvalidInput(t *testing.T) {
	t.Parallel()

	h := newHarness(t, newScriptedOracle(), Config{})
	if _, err := h.orch.HandleMessage(context.Background(), " ", "hi"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("blank session error = %v", err)
	}
	if _, err := h.orch.HandleMessage(context.Background(), "s1", "   "); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("blank message error = %v", err)
	}
	if h.store.Len() != 0 {
		t.Fatal("invalid input must not create a session")
	}
}

func TestHandleMessageOracleFailure(t *testing.T) {
	t.Parallel()

	failing := oracleFunc(func(ctx context.Context, req contractx.OracleRequest) (contractx.OracleReply, error) {
		return contractx.OracleReply{}, errors.New("upstream 502")
	})
	h := newHarness(t, failing, Config{})

	_, err := h.orch.HandleMessage(context.Background(), "s1", "hello")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("HandleMessage() error = %v, want ErrModelInvoke", err)
	}
	sess, err := h.store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(sess.History) != 1 || sess.History[0].Role != statex.RoleUser {
		t.Fatalf("history = %+v", sess.History)
	}
}

func TestHandleMessageTurnTimeout(t *testing.T) {
	t.Parallel()

	var calls int
	var mu sync.Mutex
	blocking := oracleFunc(func(ctx context.Context, req contractx.OracleRequest) (contractx.OracleReply, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			<-ctx.Done()
			return contractx.OracleReply{}, ctx.Err()
		}
		return contractx.OracleReply{Content: "back"}, nil
	})
	h := newHarness(t, blocking, Config{TurnTimeout: 30 * time.Millisecond})

	_, err := h.orch.HandleMessage(context.Background(), "s1", "hello")
	if !errors.Is(err, contractx.ErrTurnTimeout) {
		t.Fatalf("HandleMessage() error = %v, want ErrTurnTimeout", err)
	}

	// The lock was released; the next turn goes through.
	reply, err := h.orch.HandleMessage(context.Background(), "s1", "still there?")
	if err != nil || reply != "back" {
		t.Fatalf("second turn = %q, %v", reply, err)
	}

	sess, err := h.store.Load(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	// Timed-out turn kept its user message; second turn adds user + reply.
	if len(sess.History) != 3 || sess.History[0].Content != "hello" {
		t.Fatalf("history = %+v", sess.History)
	}
}

func TestHandleMessageTimeoutAfterFinalizeKeepsCartCleared(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		calls int
	)
	oracle := oracleFunc(func(ctx context.Context, req contractx.OracleRequest) (contractx.OracleReply, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		switch n {
		case 1:
			return contractx.OracleReply{ToolCalls: []statex.ToolCall{call("c1", tool.ToolAddToOrder, `{"item_name":"shawarma","quantity":2}`)}}, nil
		case 2:
			return contractx.OracleReply{Content: "Added two shawarma."}, nil
		case 3:
			return contractx.OracleReply{ToolCalls: []statex.ToolCall{call("c2", tool.ToolFinalizeOrder,
				`{"customer_name":"Ana","email":"ana@example.com","address":"1 Main St","phone":"555"}`)}}, nil
		default:
			<-ctx.Done()
			return contractx.OracleReply{}, ctx.Err()
		}
	})
	h := newHarness(t, oracle, Config{TurnTimeout: 200 * time.Millisecond})
	ctx := context.Background()

	if _, err := h.orch.HandleMessage(ctx, "s1", "two shawarma"); err != nil {
		t.Fatalf("first turn error = %v", err)
	}
	_, err := h.orch.HandleMessage(ctx, "s1", "confirm, I'm Ana")
	if !errors.Is(err, contractx.ErrTurnTimeout) {
		t.Fatalf("HandleMessage() error = %v, want ErrTurnTimeout", err)
	}

	if len(h.sink.orders) != 1 {
		t.Fatalf("orders submitted = %d, want 1", len(h.sink.orders))
	}
	sess, err := h.store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !sess.Cart.IsEmpty() {
		t.Fatalf("submitted order came back in the cart: %+v", sess.Cart.Items)
	}
	// Turn 1: user, tool call, tool result, reply. Turn 2: user, tool call, tool result.
	if len(sess.History) != 7 {
		t.Fatalf("persisted history len = %d, want 7", len(sess.History))
	}
	if last := sess.History[6]; last.Role != statex.RoleTool || last.ToolCallID != "c2" {
		t.Fatalf("last persisted message = %+v", last)
	}
	if got := h.obs.outcomes[1]; got != "timeout" {
		t.Fatalf("outcomes = %v", h.obs.outcomes)
	}
	if got := h.obs.rounds[1]; got != 2 {
		t.Fatalf("observed rounds = %v, want 2 for the timed-out turn", h.obs.rounds)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	t.Parallel()

	store := statex.NewMemoryStore()
	oracle := newScriptedOracle()
	exec, err := tool.NewExecutor(menu.MustDefault(), &fakeSink{})
	if err != nil {
		t.Fatalf("NewExecutor() error = %v", err)
	}

	if _, err := New(nil, oracle, exec, Config{SystemPrompt: "x"}); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := New(store, nil, exec, Config{SystemPrompt: "x"}); err == nil {
		t.Fatal("expected error for nil oracle")
	}
	if _, err := New(store, oracle, nil, Config{SystemPrompt: "x"}); err == nil {
		t.Fatal("expected error for nil tools")
	}
	if _, err := New(store, oracle, exec, Config{}); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("New() error = %v, want ErrPromptMissing", err)
	}
}
