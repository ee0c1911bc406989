package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Order-Agent/agent/menu"
	statex "github.com/tanpawarit/Chative-Order-Agent/agent/state"
)

type Option func(*Executor)

func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

func WithOrderIDs(next func() string) Option {
	return func(e *Executor) {
		if next != nil {
			e.nextOrderID = next
		}
	}
}

// WithEnforcedHours makes addToOrder and finalizeOrder refuse while closed.
func WithEnforcedHours(enforce bool) Option {
	return func(e *Executor) {
		e.enforceHours = enforce
	}
}

// Executor runs tool calls against a session. It implements contract.ToolGateway.
type Executor struct {
	menu         *menu.Menu
	sink         contractx.OrderSink
	now          func() time.Time
	nextOrderID  func() string
	enforceHours bool
}

func NewExecutor(m *menu.Menu, sink contractx.OrderSink, opts ...Option) (*Executor, error) {
	if m == nil {
		return nil, errors.New("menu is required")
	}
	if sink == nil {
		return nil, errors.New("order sink is required")
	}
	e := &Executor{
		menu:        m,
		sink:        sink,
		now:         time.Now,
		nextOrderID: shortuuid.New,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

func (e *Executor) Specs() []contractx.ToolSpec {
	return Specs()
}

func (e *Executor) Execute(ctx context.Context, sess *statex.Session, req contractx.ToolRequest) contractx.ToolResult {
	call, err := Parse(req.Tool, req.Arguments)
	if err != nil {
		return contractx.ToolResult{Tool: req.Tool, Kind: contractx.ResultValidation, Error: err.Error()}
	}

	res := e.run(ctx, sess, call)
	res.Tool = call.ToolName()
	return res
}

func (e *Executor) run(ctx context.Context, sess *statex.Session, call Call) contractx.ToolResult {
	switch c := call.(type) {
	case CheckCurrentTime:
		return e.checkCurrentTime()
	case GetMenuInfo:
		return e.getMenuInfo(c)
	case CheckStoreHours:
		return ok(fmt.Sprintf("We are open: %s.", e.menu.Hours().Display))
	case AddToOrder:
		return e.addToOrder(sess, c)
	case GetCurrentOrderSummary:
		return ok(summarize(&sess.Cart))
	case FinalizeOrder:
		return e.finalizeOrder(ctx, sess, c)
	default:
		return contractx.ToolResult{Kind: contractx.ResultValidation, Error: fmt.Sprintf("unsupported tool %s", call.ToolName())}
	}
}

func (e *Executor) checkCurrentTime() contractx.ToolResult {
	if e.menu.Hours().IsOpen(e.now()) {
		return ok("OPEN")
	}
	return ok(e.closedMessage())
}

func (e *Executor) closedMessage() string {
	return fmt.Sprintf("CLOSED. Sorry, we are closed right now. You can visit us during our hours: %s.", e.menu.Hours().Display)
}

func (e *Executor) getMenuInfo(c GetMenuInfo) contractx.ToolResult {
	items := e.menu.Lookup(c.Query)
	if len(items) == 0 {
		return ok(fmt.Sprintf("Sorry, '%s' is not on our menu.", c.Query))
	}

	header := "Items found:"
	if menu.IsAllQuery(c.Query) {
		header = "Current menu:"
	}
	var b strings.Builder
	b.WriteString(header)
	for _, it := range items {
		fmt.Fprintf(&b, "\n- %s: %s", it.DisplayName, it.UnitPrice)
	}
	return ok(b.String())
}

func (e *Executor) addToOrder(sess *statex.Session, c AddToOrder) contractx.ToolResult {
	if e.enforceHours && !e.menu.Hours().IsOpen(e.now()) {
		return domainErr(e.closedMessage())
	}

	item, found := e.menu.Find(c.ItemName)
	if !found {
		return domainErr(fmt.Sprintf("%s is not on the menu.", c.ItemName))
	}
	line, err := sess.Cart.Add(item, c.Quantity)
	if err != nil {
		return contractx.ToolResult{Kind: contractx.ResultValidation, Error: err.Error()}
	}
	return ok(fmt.Sprintf("Added %d x %s to your cart. (%s)", line.Quantity, line.DisplayName, line.LineTotal))
}

func summarize(cart *statex.Cart) string {
	if cart.IsEmpty() {
		return "The cart is empty."
	}
	var b strings.Builder
	b.WriteString("Cart summary:")
	for _, l := range cart.Items {
		fmt.Fprintf(&b, "\n%dx %s (%s)", l.Quantity, l.DisplayName, l.LineTotal)
	}
	fmt.Fprintf(&b, "\n\nTotal: %s", cart.Total())
	return b.String()
}

func (e *Executor) finalizeOrder(ctx context.Context, sess *statex.Session, c FinalizeOrder) contractx.ToolResult {
	if sess.Cart.IsEmpty() {
		return domainErr("Cannot finalize an empty order.")
	}
	if e.enforceHours && !e.menu.Hours().IsOpen(e.now()) {
		return domainErr(e.closedMessage())
	}

	order := contractx.FinalizedOrder{
		OrderID:   e.nextOrderID(),
		SessionID: sess.SessionID,
		Customer: contractx.Customer{
			Name:    c.CustomerName,
			Email:   c.Email,
			Address: c.Address,
			Phone:   c.Phone,
		},
		Items:       sess.Cart.Snapshot(),
		Total:       sess.Cart.Total(),
		SubmittedAt: e.now().UTC(),
	}

	// The cart is only cleared once every sink accepted the order.
	if err := e.sink.Submit(ctx, order); err != nil {
		log.Error().Err(err).
			Str("session_id", sess.SessionID).
			Str("order_id", order.OrderID).
			Msg("order submission failed")
		return contractx.ToolResult{
			Kind:  contractx.ResultFailure,
			Error: "We could not place your order right now. Your cart was kept, please try again.",
		}
	}
	sess.Cart.Clear()

	log.Info().
		Str("session_id", sess.SessionID).
		Str("order_id", order.OrderID).
		Int("items", len(order.Items)).
		Str("total", order.Total.String()).
		Msg("order finalized")

	return ok(fmt.Sprintf("Order confirmed! Order number %s. Receipt sent to %s.", order.OrderID, c.Email))
}

func ok(text string) contractx.ToolResult {
	return contractx.ToolResult{Kind: contractx.ResultOK, Result: text}
}

// domainErr is a well-formed request the restaurant cannot honour.
func domainErr(msg string) contractx.ToolResult {
	return contractx.ToolResult{Kind: contractx.ResultDomain, Error: msg}
}
