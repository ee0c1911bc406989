package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tanpawarit/Chative-Order-Agent/agent/menu"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrCartCorrupt     = errors.New("cart line total mismatch")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one history record. Assistant messages may carry ToolCalls;
// tool messages carry the ToolCallID they answer.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func UserMessage(text string, now time.Time) Message {
	return Message{Role: RoleUser, Content: text, CreatedAt: now.UTC()}
}

func AssistantMessage(text string, calls []ToolCall, now time.Time) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls, CreatedAt: now.UTC()}
}

func ToolMessage(callID, toolName, text string, now time.Time) Message {
	return Message{Role: RoleTool, Content: text, ToolCallID: callID, ToolName: toolName, CreatedAt: now.UTC()}
}

type LineItem struct {
	ItemKey     string     `json:"item_key"`
	DisplayName string     `json:"display_name"`
	UnitPrice   menu.Price `json:"unit_price"`
	Quantity    int        `json:"quantity"`
	LineTotal   menu.Price `json:"line_total"`
}

// Cart is append-only until cleared.
type Cart struct {
	Items []LineItem `json:"items"`
}

func (c *Cart) Add(item menu.Item, quantity int) (LineItem, error) {
	if quantity <= 0 {
		return LineItem{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	line := LineItem{
		ItemKey:     item.Key,
		DisplayName: item.DisplayName,
		UnitPrice:   item.UnitPrice,
		Quantity:    quantity,
		LineTotal:   item.UnitPrice.Times(quantity),
	}
	c.Items = append(c.Items, line)
	return line, nil
}

func (c *Cart) Clear() {
	c.Items = nil
}

// Total is recomputed from the lines on every call.
func (c *Cart) Total() menu.Price {
	var total menu.Price
	for _, l := range c.Items {
		total += l.LineTotal
	}
	return total
}

// ItemCount sums quantities, not lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Snapshot() []LineItem {
	if len(c.Items) == 0 {
		return nil
	}
	out := make([]LineItem, len(c.Items))
	copy(out, c.Items)
	return out
}

func (c *Cart) Validate() error {
	for i, l := range c.Items {
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: line %d", ErrInvalidQuantity, i)
		}
		if l.LineTotal != l.UnitPrice.Times(l.Quantity) {
			return fmt.Errorf("%w: line %d (%s)", ErrCartCorrupt, i, l.ItemKey)
		}
	}
	return nil
}

// Session is the persisted per-conversation state: history plus cart.
type Session struct {
	SessionID string    `json:"session_id"`
	History   []Message `json:"history,omitempty"`
	Cart      Cart      `json:"cart"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSession(sessionID string, now time.Time) *Session {
	return &Session{
		SessionID: sessionID,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *Session) Append(msgs ...Message) {
	s.History = append(s.History, msgs...)
}

// Clone returns a deep copy; mutating it never affects s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.History != nil {
		out.History = make([]Message, len(s.History))
		for i, m := range s.History {
			if m.ToolCalls != nil {
				m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
			}
			out.History[i] = m
		}
	}
	out.Cart = Cart{Items: s.Cart.Snapshot()}
	return &out
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	return s.Cart.Validate()
}
